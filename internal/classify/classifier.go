// Package classify assigns each event its presentation variant from an
// ordered rule set. Rule order is significant: several rules can match the
// same event and the first match wins.
package classify

import (
	"strings"

	"weekplan/internal/model"
)

// LocalTag is the source tag the local store stamps on personal events.
const LocalTag = "local"

// Rules holds the configurable inputs of classification. Zero values fall
// back to the defaults below.
type Rules struct {
	// PracticeTag is the source tag of the practice-management provider.
	PracticeTag string

	// BrandPhrases are provider brand phrases whose presence in the title,
	// notes or action items marks an event as a practice appointment.
	BrandPhrases []string

	// HolidayKeywords extend the built-in "holiday" title match.
	HolidayKeywords []string
}

const defaultPracticeTag = "practice"

// Classifier evaluates the ordered rule set. Safe for concurrent use; it
// holds only immutable rule data.
type Classifier struct {
	practiceTag     string
	brandPhrases    []string
	holidayKeywords []string
}

// NewClassifier builds a Classifier from the given rules.
func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{
		practiceTag:     rules.PracticeTag,
		holidayKeywords: []string{"holiday"},
	}
	if c.practiceTag == "" {
		c.practiceTag = defaultPracticeTag
	}
	for _, p := range rules.BrandPhrases {
		if p = strings.TrimSpace(p); p != "" {
			c.brandPhrases = append(c.brandPhrases, strings.ToLower(p))
		}
	}
	for _, k := range rules.HolidayKeywords {
		if k = strings.TrimSpace(k); k != "" {
			c.holidayKeywords = append(c.holidayKeywords, strings.ToLower(k))
		}
	}
	return c
}

// Classify returns exactly one variant for every event. The evaluation
// order below must not change: holiday beats practice beats external, and
// everything else is personal.
func (c *Classifier) Classify(ev model.Event) model.Variant {
	title := strings.ToLower(ev.Title)

	// 1. Holiday: marked holiday calendar, or a holiday keyword in the title.
	if ev.HolidaySource {
		return model.VariantHoliday
	}
	for _, k := range c.holidayKeywords {
		if strings.Contains(title, k) {
			return model.VariantHoliday
		}
	}

	// 2. Practice appointment: provider source tag, a brand phrase anywhere
	// in the text fields, or a title ending in the word "Appointment". The
	// suffix heuristic stays because the provider renames synced events to
	// "<Name> Appointment".
	if ev.SourceTag == c.practiceTag {
		return model.VariantPractice
	}
	text := title + "\n" + strings.ToLower(ev.Notes) + "\n" + strings.ToLower(ev.ActionItems)
	for _, p := range c.brandPhrases {
		if strings.Contains(text, p) {
			return model.VariantPractice
		}
	}
	if endsWithWord(title, "appointment") {
		return model.VariantPractice
	}

	// 3. External calendar: any tagged source that is not the local store.
	if ev.SourceTag != "" && ev.SourceTag != LocalTag {
		return model.VariantExternal
	}

	// 4. Default.
	return model.VariantPersonal
}

// endsWithWord reports whether s (already lowercased) ends with the given
// word as a whole word, ignoring trailing whitespace.
func endsWithWord(s, word string) bool {
	s = strings.TrimRight(s, " \t")
	if !strings.HasSuffix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	prev := s[len(s)-len(word)-1]
	return prev == ' ' || prev == '\t'
}
