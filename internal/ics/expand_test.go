package ics

import (
	"testing"
	"time"
)

func expandWindow() (time.Time, time.Time) {
	return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
}

func TestExpand_SingleEvent(t *testing.T) {
	start, end := expandWindow()
	src := Source{Tag: "gcal"}

	parsed := []ParsedEvent{
		{
			Source:      src,
			UID:         "one",
			Summary:     "Dinner",
			Description: "Table for two",
			Start:       time.Date(2025, 3, 12, 19, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 3, 12, 21, 0, 0, 0, time.UTC),
		},
		{
			Source:  src,
			UID:     "outside",
			Summary: "Last year",
			Start:   time.Date(2024, 3, 12, 19, 0, 0, 0, time.UTC),
			End:     time.Date(2024, 3, 12, 21, 0, 0, 0, time.UTC),
		},
	}

	res, err := Expand(parsed, ExpandConfig{DisplayLocation: time.UTC, RangeStart: start, RangeEnd: end})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1 (window filter)", len(res.Events))
	}
	ev := res.Events[0]
	if ev.Title != "Dinner" || ev.Notes != "Table for two" || ev.SourceTag != "gcal" {
		t.Errorf("event fields = %+v", ev)
	}
	if ev.ID == "" || ev.ID == "one" {
		t.Errorf("ID %q should combine UID and instance start", ev.ID)
	}
}

func TestExpand_WeeklyWithExdate(t *testing.T) {
	start, end := expandWindow()

	parsed := []ParsedEvent{{
		Source:   Source{Tag: "gcal"},
		UID:      "weekly",
		Summary:  "Standup",
		Start:    time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;COUNT=4",
		ExDates:  []time.Time{time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)},
	}}

	res, err := Expand(parsed, ExpandConfig{DisplayLocation: time.UTC, RangeStart: start, RangeEnd: end})
	if err != nil {
		t.Fatal(err)
	}
	// 4 weekly instances, one removed by EXDATE; the 31st is inside the window.
	if len(res.Events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(res.Events), res.Events)
	}
	ids := map[string]bool{}
	for _, ev := range res.Events {
		if ids[ev.ID] {
			t.Errorf("duplicate instance id %q", ev.ID)
		}
		ids[ev.ID] = true
		if ev.End.Sub(ev.Start) != 30*time.Minute {
			t.Errorf("instance %q duration = %v", ev.ID, ev.End.Sub(ev.Start))
		}
		if ev.Start.Day() == 17 {
			t.Errorf("EXDATE instance survived: %+v", ev)
		}
	}
}

func TestExpand_RecurrenceOverride(t *testing.T) {
	start, end := expandWindow()
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	secondInstance := base.AddDate(0, 0, 7)
	moved := secondInstance.Add(2 * time.Hour)

	parsed := []ParsedEvent{
		{
			Source:   Source{Tag: "gcal"},
			UID:      "weekly",
			Summary:  "Standup",
			Start:    base,
			End:      base.Add(30 * time.Minute),
			RawRRule: "FREQ=WEEKLY;COUNT=2",
		},
		{
			Source:     Source{Tag: "gcal"},
			UID:        "weekly",
			Summary:    "Standup (moved)",
			Start:      moved,
			End:        moved.Add(30 * time.Minute),
			Recurrence: &secondInstance,
			IsOverride: true,
		},
	}

	res, err := Expand(parsed, ExpandConfig{DisplayLocation: time.UTC, RangeStart: start, RangeEnd: end})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(res.Events))
	}

	var found bool
	for _, ev := range res.Events {
		if ev.Start.Equal(moved) {
			found = true
			if ev.Title != "Standup (moved)" {
				t.Errorf("override title = %q", ev.Title)
			}
		}
		if ev.Start.Equal(secondInstance) {
			t.Errorf("unmoved second instance still present: %+v", ev)
		}
	}
	if !found {
		t.Error("override instance missing")
	}
}

func TestExpand_AllDayRecurring(t *testing.T) {
	start, end := expandWindow()

	parsed := []ParsedEvent{{
		Source:   Source{Tag: "holidays", Holiday: true},
		UID:      "daily",
		Summary:  "Holiday week",
		Start:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		AllDay:   true,
		RawRRule: "FREQ=DAILY;COUNT=3",
	}}

	res, err := Expand(parsed, ExpandConfig{DisplayLocation: time.UTC, RangeStart: start, RangeEnd: end})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(res.Events))
	}
	for _, ev := range res.Events {
		if !ev.AllDayHint || !ev.HolidaySource {
			t.Errorf("instance flags = %+v", ev)
		}
		if ev.End.Sub(ev.Start) != 24*time.Hour {
			t.Errorf("all-day span = %v", ev.End.Sub(ev.Start))
		}
	}
}

func TestExpand_OccurrenceCap(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	parsed := []ParsedEvent{{
		Source:   Source{Tag: "gcal"},
		UID:      "noisy",
		Summary:  "Hourly",
		Start:    start,
		End:      start.Add(30 * time.Minute),
		RawRRule: "FREQ=HOURLY",
	}}

	res, err := Expand(parsed, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             start,
		RangeEnd:               end,
		MaxOccurrencesPerEvent: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 10 {
		t.Errorf("got %d events, want cap of 10", len(res.Events))
	}
	if len(res.TruncatedUIDs) != 1 || res.TruncatedUIDs[0] != "noisy" {
		t.Errorf("truncated = %v", res.TruncatedUIDs)
	}
}

func TestExpand_InvalidRange(t *testing.T) {
	start, _ := expandWindow()
	if _, err := Expand(nil, ExpandConfig{RangeStart: start, RangeEnd: start.AddDate(0, 0, -1)}); err == nil {
		t.Error("expected error for inverted range")
	}
}
