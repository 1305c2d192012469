package layout

import (
	"testing"
	"time"

	"weekplan/internal/model"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestIsAllDay(t *testing.T) {
	midnight := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event model.Event
		want  bool
	}{
		{
			name:  "explicit hint",
			event: model.Event{AllDayHint: true, Start: at(9, 0), End: at(9, 30)},
			want:  true,
		},
		{
			name:  "midnight to midnight",
			event: model.Event{Start: midnight, End: midnight.Add(24 * time.Hour)},
			want:  true,
		},
		{
			name:  "two full days",
			event: model.Event{Start: midnight, End: midnight.Add(48 * time.Hour)},
			want:  true,
		},
		{
			name:  "24h not starting at midnight",
			event: model.Event{Start: at(9, 0), End: at(9, 0).Add(24 * time.Hour)},
			want:  true, // caught by the 20h threshold, not the midnight rule
		},
		{
			name:  "20 hour threshold",
			event: model.Event{Start: at(1, 0), End: at(21, 0)},
			want:  true,
		},
		{
			name:  "just under the threshold",
			event: model.Event{Start: at(1, 0), End: at(20, 59)},
			want:  false,
		},
		{
			name:  "40 minute meeting",
			event: model.Event{Start: at(8, 0), End: at(8, 40)},
			want:  false,
		},
		{
			name:  "zero duration never all-day",
			event: model.Event{Start: midnight, End: midnight},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllDay(tt.event); got != tt.want {
				t.Errorf("IsAllDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	banner := model.Event{ID: "banner", AllDayHint: true, Start: at(0, 0), End: at(23, 59)}
	first := model.Event{ID: "first", Start: at(9, 0), End: at(10, 0)}
	second := model.Event{ID: "second", Start: at(11, 0), End: at(12, 0)}

	allDay, timed := Partition([]model.Event{first, banner, second})

	if len(allDay) != 1 || allDay[0].ID != "banner" {
		t.Fatalf("allDay = %v", allDay)
	}
	if len(timed) != 2 || timed[0].ID != "first" || timed[1].ID != "second" {
		t.Fatalf("timed order not preserved: %v", timed)
	}
}
