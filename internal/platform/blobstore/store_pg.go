package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fisiocare/fisiocare/internal/platform/db"
)

// PGStore persists reports in PostgreSQL with the content held in a
// bytea column alongside the metadata.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// conn returns the transaction bound to ctx when present, otherwise the
// pool itself.
func (s *PGStore) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *PGStore) Upload(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	data, meta, err := readBlob(meta, content)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO reports (id, file_name, content_type, size, patient_code, title, hash, content, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = s.conn(ctx).Exec(ctx, q,
		meta.ID, meta.FileName, meta.ContentType, meta.Size, meta.PatientCode,
		meta.Title, meta.Hash, data, meta.CreatedAt, meta.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("inserting report: %w", err)
	}
	out := meta
	return &out, nil
}

func (s *PGStore) Download(ctx context.Context, id string) (io.ReadCloser, *Metadata, error) {
	const q = `
		SELECT id, file_name, content_type, size, patient_code, title, hash, content, created_at, created_by
		FROM reports WHERE id = $1`

	var meta Metadata
	var content []byte
	err := s.conn(ctx).QueryRow(ctx, q, id).Scan(
		&meta.ID, &meta.FileName, &meta.ContentType, &meta.Size, &meta.PatientCode,
		&meta.Title, &meta.Hash, &content, &meta.CreatedAt, &meta.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("fetching report: %w", err)
	}
	return io.NopCloser(bytes.NewReader(content)), &meta, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetMetadata(ctx context.Context, id string) (*Metadata, error) {
	const q = `
		SELECT id, file_name, content_type, size, patient_code, title, hash, created_at, created_by
		FROM reports WHERE id = $1`

	var meta Metadata
	err := s.conn(ctx).QueryRow(ctx, q, id).Scan(
		&meta.ID, &meta.FileName, &meta.ContentType, &meta.Size, &meta.PatientCode,
		&meta.Title, &meta.Hash, &meta.CreatedAt, &meta.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching report metadata: %w", err)
	}
	return &meta, nil
}

func (s *PGStore) ListByPatient(ctx context.Context, patientCode string, limit, offset int) ([]*Metadata, int, error) {
	var total int
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE patient_code = $1`, patientCode).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting reports: %w", err)
	}

	const q = `
		SELECT id, file_name, content_type, size, patient_code, title, hash, created_at, created_by
		FROM reports WHERE patient_code = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.conn(ctx).Query(ctx, q, patientCode, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []*Metadata
	for rows.Next() {
		var meta Metadata
		if err := rows.Scan(
			&meta.ID, &meta.FileName, &meta.ContentType, &meta.Size, &meta.PatientCode,
			&meta.Title, &meta.Hash, &meta.CreatedAt, &meta.CreatedBy); err != nil {
			return nil, 0, fmt.Errorf("scanning report row: %w", err)
		}
		out = append(out, &meta)
	}
	return out, total, rows.Err()
}
