// Package layout is the planner's time-grid layout engine: it turns a set
// of events and a date range into per-day geometric placements on the
// fixed half-hour grid, deterministically, so that the interactive view
// and the paginated export render identical output from identical input.
package layout

import (
	"errors"
	"time"

	"weekplan/internal/classify"
	"weekplan/internal/model"
)

// ErrInvalidRange is returned when the end date precedes the start date.
// It is the only hard failure; per-event problems become diagnostics.
var ErrInvalidRange = errors.New("layout: end date precedes start date")

// Engine computes day layouts. It holds only immutable collaborators and
// no state between calls, so independent invocations may run concurrently.
type Engine struct {
	classifier *classify.Classifier
	loc        *time.Location
}

// NewEngine builds an Engine. A nil classifier gets default rules; a nil
// location falls back to time.Local. The location defines which local
// calendar day an event belongs to.
func NewEngine(c *classify.Classifier, loc *time.Location) *Engine {
	if c == nil {
		c = classify.NewClassifier(classify.Rules{})
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{classifier: c, loc: loc}
}

// Result carries the per-day layouts together with the diagnostics
// collected along the way.
type Result struct {
	Days        []model.DayLayout
	Diagnostics []model.Diagnostic
}

// Layout computes one DayLayout per day in the inclusive [from, to] range.
//
// An event belongs to the local calendar day of its start time; events
// crossing midnight are not split (they render on their start day,
// clipped, with a diagnostic from the resolver). Every invocation
// recomputes from scratch; nothing is cached across calls.
func (e *Engine) Layout(events []model.Event, from, to time.Time) (Result, error) {
	var res Result

	first := dayStart(from, e.loc)
	last := dayStart(to, e.loc)
	if last.Before(first) {
		return res, ErrInvalidRange
	}

	// Screen out malformed records once, before day bucketing, so a bad
	// timestamp never aborts the pass.
	valid := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() {
			res.Diagnostics = append(res.Diagnostics, model.Diagnostic{
				EventID: ev.ID,
				Reason:  "missing start or end time",
			})
			continue
		}
		if !ev.End.After(ev.Start) {
			res.Diagnostics = append(res.Diagnostics, model.Diagnostic{
				EventID: ev.ID,
				Date:    dayStart(ev.Start, e.loc),
				Reason:  "end time is not after start time",
			})
			continue
		}
		valid = append(valid, ev)
	}

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		var dayEvents []model.Event
		for _, ev := range valid {
			if sameLocalDay(ev.Start, day, e.loc) {
				dayEvents = append(dayEvents, ev)
			}
		}

		allDay, timed := Partition(dayEvents)

		dl := model.DayLayout{Date: day}
		for _, ev := range allDay {
			dl.AllDay = append(dl.AllDay, model.PositionedEvent{
				Event:   ev,
				Variant: e.classifier.Classify(ev),
				AllDay:  true,
			})
		}

		assignments, diags := ResolveDay(timed, day)
		res.Diagnostics = append(res.Diagnostics, diags...)
		for _, a := range assignments {
			dl.Timed = append(dl.Timed, model.PositionedEvent{
				Event:       a.Event,
				Variant:     e.classifier.Classify(a.Event),
				StartSlot:   a.StartSlot,
				EndSlot:     a.EndSlot,
				Column:      a.Column,
				ColumnCount: a.ColumnCount,
				Rect:        RectOf(a),
			})
		}

		res.Days = append(res.Days, dl)
	}

	return res, nil
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func sameLocalDay(t, day time.Time, loc *time.Location) bool {
	t = t.In(loc)
	return t.Year() == day.Year() && t.Month() == day.Month() && t.Day() == day.Day()
}
