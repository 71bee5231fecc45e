// Package codepool allocates appointment codes from per-actor number
// pools. Every appointment is identified by a CITA code; self-service
// bookings, admin bookings and therapist bookings each draw from a
// disjoint primary range, fall back to a disjoint secondary range, and
// as a last resort draw a random number from a shared high range.
package codepool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Actor identifies who is booking the appointment.
type Actor string

const (
	ActorSelfService Actor = "self_service"
	ActorAdmin       Actor = "admin"
	ActorTherapist   Actor = "therapist"
)

// Range is an inclusive number interval.
type Range struct {
	Lo int
	Hi int
}

// Contains reports whether n falls inside the range.
func (r Range) Contains(n int) bool { return n >= r.Lo && n <= r.Hi }

// Size returns the number of values in the range.
func (r Range) Size() int { return r.Hi - r.Lo + 1 }

var primaryRanges = map[Actor]Range{
	ActorSelfService: {Lo: 1, Hi: 500},
	ActorAdmin:       {Lo: 501, Hi: 1000},
	ActorTherapist:   {Lo: 1001, Hi: 2000},
}

var secondaryRanges = map[Actor]Range{
	ActorSelfService: {Lo: 2001, Hi: 3000},
	ActorAdmin:       {Lo: 3001, Hi: 4000},
	ActorTherapist:   {Lo: 4001, Hi: 5000},
}

// LastResortRange is shared by all actors and drawn from at random once
// both dedicated pools are full.
var LastResortRange = Range{Lo: 9001, Hi: 9999}

// CodePrefix is the shared prefix of every appointment code.
const CodePrefix = "CITA-"

var (
	ErrUnknownActor  = errors.New("unknown booking actor")
	ErrPoolExhausted = errors.New("no appointment codes available")
	ErrCodeTaken     = errors.New("appointment code already reserved")
)

// ValidActor reports whether a is one of the known booking actors.
func ValidActor(a Actor) bool {
	_, ok := primaryRanges[a]
	return ok
}

// FormatCode renders a pool number as a full appointment code,
// zero-padded to four digits.
func FormatCode(n int) string {
	return fmt.Sprintf("%s%04d", CodePrefix, n)
}

// ParseCode extracts the pool number from an appointment code.
func ParseCode(code string) (int, error) {
	if !strings.HasPrefix(code, CodePrefix) {
		return 0, fmt.Errorf("malformed appointment code %q", code)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(code, CodePrefix))
	if err != nil {
		return 0, fmt.Errorf("malformed appointment code %q", code)
	}
	return n, nil
}

// RangesFor returns the primary and secondary pools for an actor.
func RangesFor(a Actor) (primary, secondary Range, err error) {
	p, ok := primaryRanges[a]
	if !ok {
		return Range{}, Range{}, ErrUnknownActor
	}
	return p, secondaryRanges[a], nil
}
