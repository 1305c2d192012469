package model

import "time"

// Variant is the presentation category a rendered event is tagged with.
// The renderer picks styling from it; the layout engine only assigns it.
type Variant string

const (
	VariantPractice Variant = "practice-appointment"
	VariantExternal Variant = "external-calendar"
	VariantPersonal Variant = "personal"
	VariantHoliday  Variant = "holiday"
)

// Event is a single planner entry as delivered by an event source
// (ICS subscription or the local store). The layout engine reads it and
// never mutates it.
type Event struct {
	ID string

	Title       string
	Notes       string
	ActionItems string

	// SourceTag is a free-form origin label, e.g. the config source ID of
	// the ICS feed this event came from, or "local" for personal events.
	SourceTag string

	// HolidaySource marks events coming from a calendar the user flagged
	// as a holiday calendar.
	HolidaySource bool

	// AllDayHint is set when the source explicitly encodes the event as
	// all-day (e.g. a DATE-valued DTSTART). Duration-based detection still
	// applies when the hint is absent.
	AllDayHint bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

// NormalizedRect is a rectangle expressed as fractions (0..1) of one
// day-column's box. Renderers multiply by their own pixel or point scale.
type NormalizedRect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PositionedEvent is one event placed on a single day. It is recomputed on
// every layout pass and carries no identity beyond its source event's ID
// plus the day it was computed for.
type PositionedEvent struct {
	Event   Event
	Variant Variant
	AllDay  bool

	// Slot span and column assignment; meaningful only when !AllDay.
	StartSlot   int
	EndSlot     int // exclusive
	Column      int
	ColumnCount int

	Rect NormalizedRect
}

// DayLayout is the layout result for one calendar day: all-day banners
// first, then the timed grid, both in deterministic order.
type DayLayout struct {
	Date   time.Time
	AllDay []PositionedEvent
	Timed  []PositionedEvent
}

// Diagnostic reports a per-event problem encountered during a layout pass.
// Diagnostics are collected alongside the result; they never abort layout.
type Diagnostic struct {
	EventID string
	Date    time.Time
	Reason  string
}
