// Package bot implements the FAQ chatbot: a keyword-matching engine over a
// small set of question/answer entries, kept in memory and seeded at
// startup, with Echo handlers for asking questions and managing entries.
package bot

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fisiocare/fisiocare/internal/platform/auth"
)

// Entry is a single FAQ item. Keywords are matched against normalized
// user messages; Question is shown back in listings only.
type Entry struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

// Answer is the engine's reply to a question.
type Answer struct {
	Reply   string `json:"reply"`
	EntryID string `json:"entry_id,omitempty"`
	Matched bool   `json:"matched"`
}

// FallbackReply is returned when no entry scores above the minimum.
const FallbackReply = "Sorry, I did not understand. You can ask about opening hours, " +
	"address, prices, booking or cancellation."

const minScore = 1

// Engine matches user messages against FAQ entries.
type Engine struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewEngine creates an Engine seeded with the default clinic FAQ.
func NewEngine() *Engine {
	e := &Engine{entries: make(map[string]*Entry)}
	for _, entry := range defaultEntries() {
		_ = e.Upsert(entry)
	}
	return e
}

func defaultEntries() []Entry {
	return []Entry{
		{
			ID:       "hours",
			Question: "What are the opening hours?",
			Answer:   "We are open Monday to Friday 8:00-20:00 and Saturday 9:00-13:00.",
			Keywords: []string{"hours", "open", "opening", "schedule", "horario"},
		},
		{
			ID:       "address",
			Question: "Where is the clinic?",
			Answer:   "The clinic is at Av. Principal 123, second floor.",
			Keywords: []string{"address", "where", "location", "direccion", "ubicacion"},
		},
		{
			ID:       "prices",
			Question: "How much does a session cost?",
			Answer:   "Session prices depend on the service. Check the services catalog or ask at reception.",
			Keywords: []string{"price", "prices", "cost", "precio", "cuanto"},
		},
		{
			ID:       "booking",
			Question: "How do I book an appointment?",
			Answer:   "You can book from your account under Appointments, or call the front desk.",
			Keywords: []string{"book", "booking", "appointment", "cita", "reservar", "agendar"},
		},
		{
			ID:       "cancellation",
			Question: "How do I cancel an appointment?",
			Answer:   "Cancellations are free up to 24 hours before the appointment. Contact the front desk with your appointment code.",
			Keywords: []string{"cancel", "cancellation", "cancelar", "anular"},
		},
	}
}

// Upsert adds or replaces an entry. A missing ID is generated.
func (e *Engine) Upsert(entry Entry) error {
	if entry.Answer == "" {
		return fmt.Errorf("answer is required")
	}
	if len(entry.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	for i, k := range entry.Keywords {
		entry.Keywords[i] = normalize(k)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.entries[entry.ID]; !exists {
		e.order = append(e.order, entry.ID)
	}
	stored := entry
	e.entries[entry.ID] = &stored
	return nil
}

// Delete removes an entry.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.entries[id]; !ok {
		return fmt.Errorf("entry %s not found", id)
	}
	delete(e.entries, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all entries in insertion order.
func (e *Engine) List() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Entry, 0, len(e.entries))
	for _, id := range e.order {
		if entry, ok := e.entries[id]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

// Ask scores every entry by keyword hits against the normalized message
// and returns the best answer, or the fallback when nothing scores.
func (e *Engine) Ask(message string) Answer {
	words := strings.Fields(normalize(message))
	if len(words) == 0 {
		return Answer{Reply: FallbackReply}
	}
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	type scored struct {
		entry *Entry
		score int
	}
	var candidates []scored
	for _, id := range e.order {
		entry := e.entries[id]
		score := 0
		for _, k := range entry.Keywords {
			if wordSet[k] {
				score++
			}
		}
		if score >= minScore {
			candidates = append(candidates, scored{entry: entry, score: score})
		}
	}
	if len(candidates) == 0 {
		return Answer{Reply: FallbackReply}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0]
	return Answer{Reply: best.entry.Answer, EntryID: best.entry.ID, Matched: true}
}

// normalize lowercases and folds the Spanish accented vowels so keyword
// matching is accent-insensitive.
func normalize(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
		"?", " ", "!", " ", ",", " ", ".", " ",
	)
	return replacer.Replace(s)
}

// ---------------------------------------------------------------------------
// HTTP handler
// ---------------------------------------------------------------------------

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes wires the chatbot endpoints. Asking is open to
// visitors; entry management is an admin operation.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/chatbot/ask", h.HandleAsk)

	adminGroup := api.Group("/chatbot/entries", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("", h.HandleList)
	adminGroup.POST("", h.HandleUpsert)
	adminGroup.DELETE("/:id", h.HandleDelete)
}

type askRequest struct {
	Message string `json:"message"`
}

func (h *Handler) HandleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	return c.JSON(http.StatusOK, h.engine.Ask(req.Message))
}

func (h *Handler) HandleList(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.List())
}

func (h *Handler) HandleUpsert(c echo.Context) error {
	var entry Entry
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.engine.Upsert(entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) HandleDelete(c echo.Context) error {
	if err := h.engine.Delete(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
