// Package model defines the data structures used throughout the application.
package model

import "time"

// Entry is a single journal entry ("thought") owned by one user.
//
// Competencies holds the ids of the competency tags attached to the entry.
// It is always non-nil in API responses — an untagged entry serialises as
// "competencies": [] rather than null, so clients never have to null-check.
//
// UserID never leaves the server; ownership is enforced in the store layer
// (every mutation filters on id AND user_id) and exposing it would only
// leak which internal account owns a row.
type Entry struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	Competencies []int64   `json:"competencies"`
	UserID       string    `json:"-"`
}
