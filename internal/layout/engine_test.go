package layout

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"weekplan/internal/classify"
	"weekplan/internal/model"
)

func newTestEngine() *Engine {
	return NewEngine(classify.NewClassifier(classify.Rules{PracticeTag: "acme-pm"}), time.UTC)
}

func TestEngine_Layout(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)

	events := []model.Event{
		{ID: "appt", Title: "Jane Doe Appointment", SourceTag: "acme-pm",
			Start: mon.Add(9 * time.Hour), End: mon.Add(10 * time.Hour)},
		{ID: "banner", Title: "Conference", AllDayHint: true,
			Start: mon, End: tue},
		{ID: "lunch", Title: "Lunch", SourceTag: "gcal",
			Start: tue.Add(12 * time.Hour), End: tue.Add(13 * time.Hour)},
	}

	res, err := engine.Layout(events, mon, tue)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(res.Days))
	}
	if !res.Days[0].Date.Equal(mon) || !res.Days[1].Date.Equal(tue) {
		t.Fatalf("days out of range order: %v, %v", res.Days[0].Date, res.Days[1].Date)
	}

	day1 := res.Days[0]
	if len(day1.AllDay) != 1 || day1.AllDay[0].Event.ID != "banner" || !day1.AllDay[0].AllDay {
		t.Errorf("monday all-day = %v", day1.AllDay)
	}
	if len(day1.Timed) != 1 {
		t.Fatalf("monday timed = %v", day1.Timed)
	}
	appt := day1.Timed[0]
	if appt.Variant != model.VariantPractice {
		t.Errorf("appt variant = %q", appt.Variant)
	}
	if appt.StartSlot != 6 || appt.EndSlot != 8 || appt.Column != 0 || appt.ColumnCount != 1 {
		t.Errorf("appt placement = %+v", appt)
	}

	day2 := res.Days[1]
	if len(day2.AllDay) != 0 || len(day2.Timed) != 1 {
		t.Fatalf("tuesday layout = %+v", day2)
	}
	if day2.Timed[0].Variant != model.VariantExternal {
		t.Errorf("lunch variant = %q", day2.Timed[0].Variant)
	}
}

func TestEngine_Layout_EveryEventInExactlyOneList(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	events := []model.Event{
		{ID: "a", Start: mon.Add(9 * time.Hour), End: mon.Add(10 * time.Hour)},
		{ID: "b", AllDayHint: true, Start: mon, End: mon.AddDate(0, 0, 1)},
		{ID: "c", Start: mon.Add(9*time.Hour + 15*time.Minute), End: mon.Add(9*time.Hour + 45*time.Minute)},
	}

	res, err := engine.Layout(events, mon, mon)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]int{}
	for _, d := range res.Days {
		for _, pe := range d.AllDay {
			seen[pe.Event.ID]++
		}
		for _, pe := range d.Timed {
			seen[pe.Event.ID]++
		}
	}
	for _, id := range []string{"a", "b", "c"} {
		if seen[id] != 1 {
			t.Errorf("event %q appears %d times, want exactly once", id, seen[id])
		}
	}
}

func TestEngine_Layout_Deterministic(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	events := []model.Event{
		{ID: "c", Start: mon.Add(9*time.Hour + 30*time.Minute), End: mon.Add(10 * time.Hour)},
		{ID: "a", Start: mon.Add(9 * time.Hour), End: mon.Add(10 * time.Hour)},
		{ID: "b", Start: mon.Add(9 * time.Hour), End: mon.Add(10 * time.Hour)},
	}

	first, err := engine.Layout(events, mon, mon)
	if err != nil {
		t.Fatal(err)
	}
	// Second pass over the same input, different slice order.
	shuffled := []model.Event{events[2], events[0], events[1]}
	second, err := engine.Layout(shuffled, mon, mon)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("layout is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestEngine_Layout_MalformedEventReported(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	events := []model.Event{
		{ID: "bad", Start: mon.Add(10 * time.Hour), End: mon.Add(9 * time.Hour)},
		{ID: "missing"},
		{ID: "good", Start: mon.Add(9 * time.Hour), End: mon.Add(10 * time.Hour)},
	}

	res, err := engine.Layout(events, mon, mon)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Days[0].Timed) != 1 || res.Days[0].Timed[0].Event.ID != "good" {
		t.Errorf("timed = %v", res.Days[0].Timed)
	}
	if len(res.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	ids := map[string]bool{}
	for _, d := range res.Diagnostics {
		ids[d.EventID] = true
	}
	if !ids["bad"] || !ids["missing"] {
		t.Errorf("diagnostics missing entries: %v", res.Diagnostics)
	}
}

func TestEngine_Layout_InvalidRange(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := engine.Layout(nil, mon, mon.AddDate(0, 0, -1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}

func TestEngine_Layout_MidnightSpannerOnStartDayOnly(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)

	spanner := model.Event{ID: "night", Start: mon.Add(22 * time.Hour), End: tue.Add(2 * time.Hour)}
	res, err := engine.Layout([]model.Event{spanner}, mon, tue)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Days[0].Timed) != 1 {
		t.Fatalf("monday timed = %v", res.Days[0].Timed)
	}
	if got := res.Days[0].Timed[0]; got.EndSlot != 36 {
		t.Errorf("spanner EndSlot = %d, want clipped to 36", got.EndSlot)
	}
	if len(res.Days[1].Timed) != 0 || len(res.Days[1].AllDay) != 0 {
		t.Errorf("spanner leaked onto tuesday: %+v", res.Days[1])
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].EventID != "night" {
		t.Errorf("want a midnight-clip diagnostic, got %v", res.Diagnostics)
	}
}

func TestEngine_Layout_DayBucketingUsesLocalDate(t *testing.T) {
	// 23:00 UTC on Monday is 08:00 Tuesday in KST; with a KST engine the
	// event must land on Tuesday.
	kst := time.FixedZone("KST", 9*60*60)
	engine := NewEngine(nil, kst)

	monUTC := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	ev := model.Event{ID: "x", Start: monUTC, End: monUTC.Add(time.Hour)}

	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, kst)
	res, err := engine.Layout([]model.Event{ev}, mon, mon.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Days[0].Timed) != 0 {
		t.Errorf("event bucketed to monday: %+v", res.Days[0])
	}
	if len(res.Days[1].Timed) != 1 {
		t.Fatalf("event not on tuesday: %+v", res.Days[1])
	}
	if got := res.Days[1].Timed[0]; got.StartSlot != 4 { // 08:00 KST
		t.Errorf("StartSlot = %d, want 4", got.StartSlot)
	}
}

func TestEngine_Layout_IsolatedRect(t *testing.T) {
	engine := newTestEngine()
	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	ev := model.Event{ID: "solo", Start: mon.Add(9 * time.Hour), End: mon.Add(10 * time.Hour)}
	res, err := engine.Layout([]model.Event{ev}, mon, mon)
	if err != nil {
		t.Fatal(err)
	}
	r := res.Days[0].Timed[0].Rect
	want := model.NormalizedRect{Top: 6.0 / 36, Height: 2.0 / 36, Left: 0, Width: 1}
	if r != want {
		t.Errorf("rect = %+v, want %+v", r, want)
	}
}
