package model

import "time"

// Occurrence represents a single concrete instance of a timeline event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	// Document names the configured document the event came from. It is
	// empty for ad-hoc parses.
	Document string `json:"document,omitempty"`
	// Page is the index of the timeline within its document.
	Page int `json:"page"`
	// UID is the event's id when it has one, otherwise a stable
	// identifier derived from its date text and position.
	UID string `json:"uid"`

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string `json:"instanceKey"`

	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	AllDay bool `json:"allDay"`

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
