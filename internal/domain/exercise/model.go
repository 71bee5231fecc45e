// Package exercise manages the home-exercise library and its assignment
// to patients: staff maintain exercises, assign them to a patient's
// plan, and patients mark assigned exercises done.
package exercise

import (
	"time"
)

// Difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var validDifficulties = map[string]bool{
	DifficultyEasy: true, DifficultyMedium: true, DifficultyHard: true,
}

// Assignment statuses.
const (
	StatusAssigned = "assigned"
	StatusDone     = "done"
)

// Exercise is a prescribable home exercise.
type Exercise struct {
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	VideoURL    string    `db:"video_url" json:"video_url,omitempty"`
	Difficulty  string    `db:"difficulty" json:"difficulty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Assignment links an exercise to a patient's plan. One row per
// patient/exercise pair.
type Assignment struct {
	PatientCode  string    `db:"patient_code" json:"patient_code"`
	ExerciseCode string    `db:"exercise_code" json:"exercise_code"`
	AssignedAt   time.Time `db:"assigned_at" json:"assigned_at"`
	Status       string    `db:"status" json:"status"`
	Notes        string    `db:"notes" json:"notes,omitempty"`
}

// AssignedExercise is an assignment joined with its exercise for
// patient-facing listings.
type AssignedExercise struct {
	Exercise
	AssignedAt time.Time `json:"assigned_at"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
}
