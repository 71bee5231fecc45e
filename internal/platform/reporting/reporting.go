// Package reporting produces downloadable CSV exports for back-office
// use: appointment history and purchase history, generated from
// predefined SQL queries and streamed with encoding/csv.
package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
)

// ExportFilter declares a query parameter an export accepts and the
// column condition it translates to.
type ExportFilter struct {
	Param     string `json:"param"`
	Condition string `json:"-"`
}

// ExportDefinition defines a CSV export with its SQL query. The base
// query must end in a WHERE clause filters can be appended to; OrderBy
// is applied after all filters.
type ExportDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	FileName    string         `json:"file_name"`
	Filters     []ExportFilter `json:"filters,omitempty"`
	SQL         string         `json:"-"`
	OrderBy     string         `json:"-"`
}

// PredefinedExports is the list of available CSV exports.
var PredefinedExports = []ExportDefinition{
	{
		ID:          "appointments",
		Name:        "Appointment History",
		Description: "All appointments with patient, therapist, service, status and dates",
		FileName:    "appointments.csv",
		Filters: []ExportFilter{
			{Param: "status", Condition: "a.status = $%d"},
			{Param: "from", Condition: "a.date >= $%d"},
			{Param: "to", Condition: "a.date <= $%d"},
		},
		SQL: `SELECT a.code, a.status, a.patient_name, a.email,
		             a.service_code, a.service_name, t.full_name AS therapist,
		             a.date, a.time, a.payment_type, a.created_at
		      FROM appointments a
		      LEFT JOIN therapists t ON t.id = a.therapist_id
		      WHERE 1=1`,
		OrderBy: ` ORDER BY a.date DESC, a.time DESC`,
	},
	{
		ID:          "purchases",
		Name:        "Purchase History",
		Description: "All completed purchases with line items and totals",
		FileName:    "purchases.csv",
		SQL: `SELECT o.id, u.email AS buyer, p.name AS product,
		             i.quantity, i.unit_price, i.quantity * i.unit_price AS line_total,
		             o.total, o.created_at
		      FROM purchases o
		      JOIN purchase_items i ON i.purchase_id = o.id
		      JOIN products p ON p.id = i.product_id
		      LEFT JOIN users u ON u.id = o.user_id
		      WHERE 1=1`,
		OrderBy: ` ORDER BY o.created_at DESC`,
	},
}

// FindExport looks up an export definition by ID.
func FindExport(id string) *ExportDefinition {
	for i := range PredefinedExports {
		if PredefinedExports[i].ID == id {
			return &PredefinedExports[i]
		}
	}
	return nil
}

// Handler provides HTTP handlers for the export API.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the export API routes. Exports are admin-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/exports", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.ListExports)
	g.GET("/:id", h.DownloadExport)
}

// ListExports returns all available export definitions.
func (h *Handler) ListExports(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedExports)
}

// DownloadExport runs an export's SQL and streams the result as CSV.
func (h *Handler) DownloadExport(c echo.Context) error {
	export := FindExport(c.Param("id"))
	if export == nil {
		return echo.NewHTTPError(http.StatusNotFound, "export not found")
	}

	sql, args := buildExportQuery(export, c.QueryParam)
	header, records, err := h.executeSQL(c.Request().Context(), sql, args...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// buildExportQuery appends the export's declared filters for every
// non-empty query parameter, numbering the placeholders, then applies
// the ordering clause.
func buildExportQuery(export *ExportDefinition, param func(string) string) (string, []interface{}) {
	sql := export.SQL
	var args []interface{}
	for _, f := range export.Filters {
		v := param(f.Param)
		if v == "" {
			continue
		}
		args = append(args, v)
		sql += " AND " + fmt.Sprintf(f.Condition, len(args))
	}
	return sql + export.OrderBy, args
}

// executeSQL runs a query and returns the column names plus every row
// rendered as strings, ready for CSV encoding.
func (h *Handler) executeSQL(ctx context.Context, sql string, args ...interface{}) ([]string, [][]string, error) {
	rows, err := h.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	header := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		header[i] = string(fd.Name)
	}

	var records [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = formatValue(v)
		}
		records = append(records, rec)
	}
	return header, records, rows.Err()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
