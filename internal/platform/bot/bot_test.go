package bot

import (
	"strings"
	"testing"
)

func TestAsk_MatchesKeyword(t *testing.T) {
	e := NewEngine()
	ans := e.Ask("what are your opening hours?")
	if !ans.Matched {
		t.Fatal("expected a match for opening hours question")
	}
	if ans.EntryID != "hours" {
		t.Errorf("expected hours entry, got %s", ans.EntryID)
	}
}

func TestAsk_AccentInsensitive(t *testing.T) {
	e := NewEngine()
	ans := e.Ask("¿Cuál es el horario?")
	if !ans.Matched || ans.EntryID != "hours" {
		t.Errorf("expected accent-folded match on hours, got %+v", ans)
	}
}

func TestAsk_Fallback(t *testing.T) {
	e := NewEngine()
	ans := e.Ask("do you sell spaceships")
	if ans.Matched {
		t.Fatalf("expected no match, got entry %s", ans.EntryID)
	}
	if ans.Reply != FallbackReply {
		t.Errorf("expected fallback reply, got %q", ans.Reply)
	}
}

func TestAsk_EmptyMessage(t *testing.T) {
	e := NewEngine()
	ans := e.Ask("   ")
	if ans.Matched || ans.Reply != FallbackReply {
		t.Errorf("expected fallback for empty message, got %+v", ans)
	}
}

func TestAsk_HighestScoreWins(t *testing.T) {
	e := NewEngine()
	if err := e.Upsert(Entry{
		ID:       "booking-detail",
		Answer:   "Detailed booking help.",
		Keywords: []string{"book", "appointment", "online"},
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	ans := e.Ask("how do I book an appointment online")
	if ans.EntryID != "booking-detail" {
		t.Errorf("expected the entry with more keyword hits, got %s", ans.EntryID)
	}
}

func TestUpsert_Validation(t *testing.T) {
	e := NewEngine()
	if err := e.Upsert(Entry{Keywords: []string{"x"}}); err == nil {
		t.Error("expected error for missing answer")
	}
	if err := e.Upsert(Entry{Answer: "x"}); err == nil {
		t.Error("expected error for missing keywords")
	}
}

func TestUpsert_GeneratesID(t *testing.T) {
	e := NewEngine()
	before := len(e.List())
	if err := e.Upsert(Entry{Answer: "yes", Keywords: []string{"parking"}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	entries := e.List()
	if len(entries) != before+1 {
		t.Fatalf("expected %d entries, got %d", before+1, len(entries))
	}
	last := entries[len(entries)-1]
	if last.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestDelete(t *testing.T) {
	e := NewEngine()
	if err := e.Delete("hours"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := e.Delete("hours"); err == nil {
		t.Error("expected error deleting missing entry")
	}
	for _, entry := range e.List() {
		if entry.ID == "hours" {
			t.Error("deleted entry still listed")
		}
	}
}

func TestNormalize(t *testing.T) {
	got := normalize("¿DÓNDE está la clínica?")
	if strings.ContainsAny(got, "ÁÉÍÓÚáéíóúñ?") {
		t.Errorf("normalize left accents or punctuation: %q", got)
	}
}
