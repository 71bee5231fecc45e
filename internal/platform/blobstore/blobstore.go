// Package blobstore stores patient PDF reports as binary column values.
// It defines the Store interface, a PostgreSQL implementation, an
// in-memory implementation for tests and development, and Echo handlers
// for multipart upload, download, metadata retrieval and deletion.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
	"github.com/fisiocare/fisiocare/pkg/pagination"
)

var (
	ErrNotFound        = errors.New("report not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrNotPDF          = errors.New("only PDF reports are accepted")
	ErrMissingFileName = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed report size in bytes (20 MB).
const MaxFileSize = 20 * 1024 * 1024

const pdfContentType = "application/pdf"

// Metadata describes a stored report.
type Metadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientCode string    `json:"patient_code"`
	Title       string    `json:"title,omitempty"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// Store defines the contract for report storage backends.
type Store interface {
	Upload(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *Metadata, error)
	Delete(ctx context.Context, id string) error
	GetMetadata(ctx context.Context, id string) (*Metadata, error)
	ListByPatient(ctx context.Context, patientCode string, limit, offset int) ([]*Metadata, int, error)
}

// readBlob validates common constraints and returns the content and hash.
func readBlob(meta Metadata, content io.Reader) ([]byte, Metadata, error) {
	if meta.FileName == "" {
		return nil, meta, ErrMissingFileName
	}
	if meta.ContentType != "" && meta.ContentType != pdfContentType {
		return nil, meta, ErrNotPDF
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, meta, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, meta, ErrFileTooLarge
	}

	h := sha256.Sum256(data)
	meta.ID = uuid.New().String()
	meta.ContentType = pdfContentType
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()
	return data, meta, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedBlob struct {
	metadata Metadata
	content  []byte
}

// InMemoryStore is a thread-safe, in-memory Store for testing and dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string]*storedBlob)}
}

func (s *InMemoryStore) Upload(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	data, meta, err := readBlob(meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryStore) Download(_ context.Context, id string) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *InMemoryStore) GetMetadata(_ context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	meta := blob.metadata
	return &meta, nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, patientCode string, limit, offset int) ([]*Metadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*Metadata
	for _, blob := range s.blobs {
		if blob.metadata.PatientCode == patientCode {
			meta := blob.metadata
			all = append(all, &meta)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// ---------------------------------------------------------------------------
// HTTP handler
// ---------------------------------------------------------------------------

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleAdmin, auth.RoleTherapist))
	g.POST("", h.HandleUpload)
	g.GET("", h.HandleList)
	g.GET("/:id", h.HandleMetadata)
	g.GET("/:id/content", h.HandleDownload)
	g.DELETE("/:id", h.HandleDelete)
}

func (h *Handler) HandleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	patientCode := c.FormValue("patient_code")
	if patientCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_code is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer src.Close()

	meta := Metadata{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		PatientCode: patientCode,
		Title:       c.FormValue("title"),
		CreatedBy:   auth.UserIDFromContext(c.Request().Context()),
	}

	stored, err := h.store.Upload(c.Request().Context(), meta, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotPDF), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrMissingFileName):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
		}
	}
	return c.JSON(http.StatusCreated, stored)
}

func (h *Handler) HandleList(c echo.Context) error {
	patientCode := c.QueryParam("patient_code")
	if patientCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_code query parameter is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.store.ListByPatient(c.Request().Context(), patientCode, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) HandleMetadata(c echo.Context) error {
	meta, err := h.store.GetMetadata(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) HandleDownload(c echo.Context) error {
	content, meta, err := h.store.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer content.Close()

	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, content)
}

func (h *Handler) HandleDelete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "report not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
