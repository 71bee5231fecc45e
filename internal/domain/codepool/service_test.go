package codepool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	mu       sync.Mutex
	reserved map[string]int
	// failFirstReserves makes the next N TryReserve calls fail with
	// ErrCodeTaken regardless of the code.
	failFirstReserves int
	usedErr           error
}

func newMockRepo() *mockRepo {
	return &mockRepo{reserved: make(map[string]int)}
}

func (m *mockRepo) UsedNumbers(context.Context) (map[int]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usedErr != nil {
		return nil, m.usedErr
	}
	used := make(map[int]bool, len(m.reserved))
	for _, n := range m.reserved {
		used[n] = true
	}
	return used, nil
}

func (m *mockRepo) TryReserve(_ context.Context, code string, num int, _ Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFirstReserves > 0 {
		m.failFirstReserves--
		return ErrCodeTaken
	}
	if _, exists := m.reserved[code]; exists {
		return ErrCodeTaken
	}
	m.reserved[code] = num
	return nil
}

func (m *mockRepo) Release(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, code)
	return nil
}

func (m *mockRepo) preReserve(nums ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range nums {
		m.reserved[FormatCode(n)] = n
	}
}

func newTestService(repo Repo) *Service {
	return NewService(repo, zerolog.Nop())
}

func TestAllocate_EmptyPoolReturnsFirstNumber(t *testing.T) {
	cases := []struct {
		actor Actor
		want  string
	}{
		{ActorSelfService, "CITA-0001"},
		{ActorAdmin, "CITA-0501"},
		{ActorTherapist, "CITA-1001"},
	}
	for _, tc := range cases {
		svc := newTestService(newMockRepo())
		got, err := svc.Allocate(context.Background(), tc.actor)
		if err != nil {
			t.Fatalf("Allocate(%s) failed: %v", tc.actor, err)
		}
		if got != tc.want {
			t.Errorf("Allocate(%s) = %s, want %s", tc.actor, got, tc.want)
		}
	}
}

func TestAllocate_FillsLowestGap(t *testing.T) {
	repo := newMockRepo()
	repo.preReserve(1, 2, 4)
	svc := newTestService(repo)

	got, err := svc.Allocate(context.Background(), ActorSelfService)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got != "CITA-0003" {
		t.Errorf("expected CITA-0003 to fill the gap, got %s", got)
	}
}

func TestAllocate_FallsBackToSecondaryRange(t *testing.T) {
	repo := newMockRepo()
	for n := 1; n <= 500; n++ {
		repo.preReserve(n)
	}
	svc := newTestService(repo)

	got, err := svc.Allocate(context.Background(), ActorSelfService)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got != "CITA-2001" {
		t.Errorf("expected first secondary code CITA-2001, got %s", got)
	}
}

func TestAllocate_LastResortWhenBothPoolsFull(t *testing.T) {
	repo := newMockRepo()
	for n := 501; n <= 1000; n++ {
		repo.preReserve(n)
	}
	for n := 3001; n <= 4000; n++ {
		repo.preReserve(n)
	}
	svc := newTestService(repo)

	got, err := svc.Allocate(context.Background(), ActorAdmin)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	n, err := ParseCode(got)
	if err != nil {
		t.Fatalf("ParseCode(%s) failed: %v", got, err)
	}
	if !LastResortRange.Contains(n) {
		t.Errorf("expected last-resort number in [%d,%d], got %d", LastResortRange.Lo, LastResortRange.Hi, n)
	}
}

func TestAllocate_UnknownActor(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.Allocate(context.Background(), Actor("receptionist"))
	if !errors.Is(err, ErrUnknownActor) {
		t.Errorf("expected ErrUnknownActor, got %v", err)
	}
}

func TestAllocate_RepoErrorPropagates(t *testing.T) {
	repo := newMockRepo()
	repo.usedErr = errors.New("connection refused")
	svc := newTestService(repo)

	_, err := svc.Allocate(context.Background(), ActorSelfService)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
}

func TestReserve_ClaimsCode(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	code, err := svc.Reserve(context.Background(), ActorTherapist)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if code != "CITA-1001" {
		t.Errorf("expected CITA-1001, got %s", code)
	}
	if _, ok := repo.reserved[code]; !ok {
		t.Error("expected the code to be reserved in the repo")
	}
}

func TestReserve_RetriesOnCollision(t *testing.T) {
	repo := newMockRepo()
	repo.failFirstReserves = 2
	svc := newTestService(repo)

	code, err := svc.Reserve(context.Background(), ActorSelfService)
	if err != nil {
		t.Fatalf("Reserve failed after collisions: %v", err)
	}
	if code == "" {
		t.Error("expected a code after retries")
	}
}

func TestReserve_GivesUpAfterBoundedAttempts(t *testing.T) {
	repo := newMockRepo()
	repo.failFirstReserves = reserveAttempts
	svc := newTestService(repo)

	_, err := svc.Reserve(context.Background(), ActorSelfService)
	if !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestRelease_FreesNumberForReuse(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	code, err := svc.Reserve(ctx, ActorSelfService)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if err := svc.Release(ctx, code); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	again, err := svc.Reserve(ctx, ActorSelfService)
	if err != nil {
		t.Fatalf("Reserve after release failed: %v", err)
	}
	if again != code {
		t.Errorf("expected released code %s to be reused, got %s", code, again)
	}
}

func TestRangesAreDisjoint(t *testing.T) {
	var ranges []Range
	for _, a := range []Actor{ActorSelfService, ActorAdmin, ActorTherapist} {
		p, s, err := RangesFor(a)
		if err != nil {
			t.Fatalf("RangesFor(%s) failed: %v", a, err)
		}
		ranges = append(ranges, p, s)
	}
	ranges = append(ranges, LastResortRange)

	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			a, b := ranges[i], ranges[j]
			if a.Lo <= b.Hi && b.Lo <= a.Hi {
				t.Errorf("ranges %v and %v overlap", a, b)
			}
		}
	}
}

func TestFormatAndParseCode(t *testing.T) {
	if got := FormatCode(7); got != "CITA-0007" {
		t.Errorf("FormatCode(7) = %s, want CITA-0007", got)
	}
	if got := FormatCode(9999); got != "CITA-9999" {
		t.Errorf("FormatCode(9999) = %s, want CITA-9999", got)
	}

	n, err := ParseCode("CITA-0042")
	if err != nil {
		t.Fatalf("ParseCode failed: %v", err)
	}
	if n != 42 {
		t.Errorf("ParseCode(CITA-0042) = %d, want 42", n)
	}

	if _, err := ParseCode("TICKET-0042"); err == nil {
		t.Error("expected error for wrong prefix")
	}
	if _, err := ParseCode("CITA-xyz"); err == nil {
		t.Error("expected error for non-numeric suffix")
	}
}
