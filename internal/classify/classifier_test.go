package classify

import (
	"testing"

	"weekplan/internal/model"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(Rules{
		PracticeTag:     "acme-pm",
		BrandPhrases:    []string{"Acme Practice"},
		HolidayKeywords: []string{"public holiday", "bank holiday"},
	})

	tests := []struct {
		name  string
		event model.Event
		want  model.Variant
	}{
		{
			name:  "holiday keyword in title",
			event: model.Event{Title: "Spring Holiday", SourceTag: "acme-pm"},
			want:  model.VariantHoliday,
		},
		{
			name:  "configured holiday keyword",
			event: model.Event{Title: "Bank Holiday (England)"},
			want:  model.VariantHoliday,
		},
		{
			name:  "holiday calendar source wins over everything",
			event: model.Event{Title: "Jane Appointment", HolidaySource: true},
			want:  model.VariantHoliday,
		},
		{
			name:  "provider source tag",
			event: model.Event{Title: "Catch-up", SourceTag: "acme-pm"},
			want:  model.VariantPractice,
		},
		{
			name:  "brand phrase in notes",
			event: model.Event{Title: "Session", SourceTag: "gcal", Notes: "Booked via Acme Practice portal"},
			want:  model.VariantPractice,
		},
		{
			name:  "title ends with Appointment",
			event: model.Event{Title: "Jane Doe Appointment", SourceTag: "gcal"},
			want:  model.VariantPractice,
		},
		{
			name:  "appointment suffix is case-insensitive",
			event: model.Event{Title: "jane doe APPOINTMENT "},
			want:  model.VariantPractice,
		},
		{
			name:  "appointment mid-title is not a match",
			event: model.Event{Title: "Appointment letters to send", SourceTag: "gcal"},
			want:  model.VariantExternal,
		},
		{
			name:  "appointment as part of a longer word is not a match",
			event: model.Event{Title: "Disappointment"},
			want:  model.VariantPersonal,
		},
		{
			name:  "external calendar tag",
			event: model.Event{Title: "Lunch with Sam", SourceTag: "gcal"},
			want:  model.VariantExternal,
		},
		{
			name:  "local store event",
			event: model.Event{Title: "Gym", SourceTag: LocalTag},
			want:  model.VariantPersonal,
		},
		{
			name:  "untagged event defaults to personal",
			event: model.Event{Title: "Dentist"},
			want:  model.VariantPersonal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.Classify(tt.event); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.event.Title, got, tt.want)
			}
		})
	}
}

func TestClassifier_Defaults(t *testing.T) {
	classifier := NewClassifier(Rules{})

	if got := classifier.Classify(model.Event{Title: "x", SourceTag: "practice"}); got != model.VariantPractice {
		t.Errorf("default practice tag: got %q", got)
	}
	if got := classifier.Classify(model.Event{Title: "Summer holiday"}); got != model.VariantHoliday {
		t.Errorf("built-in holiday keyword: got %q", got)
	}
}
