// Package analytics serves the admin dashboards: a fixed set of SQL
// measures evaluated on request against the live database.
package analytics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
)

// MeasureDefinition defines a dashboard measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available dashboard measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "appointments-by-status",
		Name:        "Appointments by Status",
		Description: "Count of appointments grouped by lifecycle status",
		SQL: `SELECT status, COUNT(*) AS total
		      FROM appointments GROUP BY status ORDER BY total DESC`,
	},
	{
		ID:          "top-therapists",
		Name:        "Top Therapists",
		Description: "Therapists ranked by number of confirmed appointments",
		SQL: `SELECT t.full_name AS therapist, COUNT(*) AS confirmed
		      FROM appointments a
		      JOIN therapists t ON t.id = a.therapist_id
		      WHERE a.status = 'confirmed'
		      GROUP BY t.full_name
		      ORDER BY confirmed DESC
		      LIMIT 10`,
	},
	{
		ID:          "therapist-performance",
		Name:        "Therapist Performance",
		Description: "Confirmed versus completed appointments per therapist",
		SQL: `SELECT t.full_name AS therapist,
		             COALESCE(SUM(CASE WHEN a.status = 'confirmed' THEN 1 ELSE 0 END), 0) AS confirmed,
		             COALESCE(SUM(CASE WHEN a.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		             COALESCE(SUM(CASE WHEN a.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending
		      FROM therapists t
		      LEFT JOIN appointments a ON a.therapist_id = t.id
		      GROUP BY t.full_name
		      ORDER BY confirmed DESC`,
	},
	{
		ID:          "revenue-by-month",
		Name:        "Revenue by Month",
		Description: "Product purchase totals grouped by calendar month",
		SQL: `SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
		             SUM(total) AS revenue, COUNT(*) AS purchases
		      FROM purchases
		      GROUP BY 1 ORDER BY 1 DESC`,
	},
	{
		ID:          "service-popularity",
		Name:        "Service Popularity",
		Description: "Appointment counts grouped by booked service",
		SQL: `SELECT service_code, service_name, COUNT(*) AS total
		      FROM appointments
		      GROUP BY service_code, service_name
		      ORDER BY total DESC`,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Handler provides HTTP handlers for the analytics API.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the analytics API routes. Measures are
// admin-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/analytics", auth.RequireRole(auth.RoleAdmin))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
	})
}

// executeSQL runs a query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
