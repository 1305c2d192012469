// Package planner assembles the full pipeline behind both rendering
// surfaces: gather events from every configured source, then run the
// layout engine over the requested window.
package planner

import (
	"context"
	"time"

	"weekplan/internal/classify"
	"weekplan/internal/config"
	"weekplan/internal/ics"
	"weekplan/internal/layout"
	appLog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/store"
)

// Planner wires configuration, event sources and the layout engine.
type Planner struct {
	cfg     *config.Config
	st      *store.Store
	engine  *layout.Engine
	loc     *time.Location
	fetcher *ics.Fetcher
}

// New builds a Planner. st may be nil when no local database is open; the
// local source is then skipped. debug switches the ICS cache to a relative
// directory so development runs without root permissions.
func New(cfg *config.Config, st *store.Store, debug bool) *Planner {
	loc := resolveLocationOrLocal(cfg.Timezone)
	classifier := classify.NewClassifier(classify.Rules{
		PracticeTag:     cfg.Classify.PracticeTag,
		BrandPhrases:    cfg.Classify.BrandPhrases,
		HolidayKeywords: cfg.Classify.HolidayKeywords,
	})

	cacheDir := "/var/lib/weekplan/ics-cache"
	if debug {
		cacheDir = "./cache/ics-cache"
	}

	return &Planner{
		cfg:     cfg,
		st:      st,
		engine:  layout.NewEngine(classifier, loc),
		loc:     loc,
		fetcher: ics.NewFetcher(cacheDir),
	}
}

// Location returns the display timezone all day bucketing uses.
func (p *Planner) Location() *time.Location {
	return p.loc
}

// Window converts a (days, backfill) request into the layout range:
// backfill days into the past through days-1 days into the future,
// anchored at the start of today in the display timezone. Anchoring at
// midnight keeps events earlier today inside the gather range.
func (p *Planner) Window(days, backfill int) (from, to time.Time) {
	if days <= 0 {
		days = p.cfg.HorizonDays
	}
	if backfill < 0 {
		backfill = 0
	}
	now := time.Now().In(p.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
	return today.AddDate(0, 0, -backfill), today.AddDate(0, 0, days-1)
}

// Compute gathers events for [from, to] and lays them out. Source-level
// problems are folded into the result's diagnostics; only an invalid range
// is a hard error.
func (p *Planner) Compute(ctx context.Context, from, to time.Time) (layout.Result, error) {
	events, diags := p.Gather(ctx, from, to)

	res, err := p.engine.Layout(events, from, to)
	if err != nil {
		return layout.Result{}, err
	}
	res.Diagnostics = append(diags, res.Diagnostics...)
	return res, nil
}

// Gather collects events from the subscribed ICS feeds and the local
// store. Per-source failures degrade to diagnostics, never to an error:
// a broken feed must not blank the planner.
func (p *Planner) Gather(ctx context.Context, from, to time.Time) ([]model.Event, []model.Diagnostic) {
	var events []model.Event
	var diags []model.Diagnostic

	sources := make([]ics.Source, 0, len(p.cfg.ICS))
	for _, c := range p.cfg.ICS {
		if c.URL == "" {
			continue
		}
		tag := c.ID
		if tag == "" {
			tag = c.Name
		}
		sources = append(sources, ics.Source{Tag: tag, URL: c.URL, Holiday: c.Holiday})
	}

	if len(sources) > 0 {
		results, fetchErrs := p.fetcher.FetchAll(ctx, sources)
		for _, err := range fetchErrs {
			diags = append(diags, model.Diagnostic{Reason: "ics fetch failed: " + err.Error()})
		}

		var parsed []ics.ParsedEvent
		for _, res := range results {
			evs, err := ics.Parse(res.Source, res.Body)
			if err != nil {
				appLog.Error("planner: ics parse failed", err, "tag", res.Source.Tag)
				diags = append(diags, model.Diagnostic{Reason: "ics parse failed for " + res.Source.Tag})
				continue
			}
			parsed = append(parsed, evs...)
		}

		expanded, err := ics.Expand(parsed, ics.ExpandConfig{
			DisplayLocation: p.loc,
			RangeStart:      from,
			RangeEnd:        to.AddDate(0, 0, 1),
		})
		if err != nil {
			appLog.Error("planner: expand failed", err)
			diags = append(diags, model.Diagnostic{Reason: "ics expand failed"})
		} else {
			events = append(events, expanded.Events...)
			for _, uid := range expanded.TruncatedUIDs {
				diags = append(diags, model.Diagnostic{EventID: uid, Reason: "occurrence expansion truncated"})
			}
		}
	}

	if p.st != nil {
		personal, err := p.st.ListBetween(from, to.AddDate(0, 0, 1))
		if err != nil {
			appLog.Error("planner: store list failed", err)
			diags = append(diags, model.Diagnostic{Reason: "personal event store unavailable"})
		} else {
			events = append(events, personal...)
		}
	}

	return events, diags
}

// WarmCache refreshes the ICS disk cache for every configured feed; used
// by the cron refresh loop so interactive requests hit warm caches.
func (p *Planner) WarmCache(ctx context.Context) {
	from, to := p.Window(0, 0)
	events, diags := p.Gather(ctx, from, to)
	appLog.Info("ics cache refreshed", "events", len(events), "diagnostics", len(diags))
	for _, d := range diags {
		appLog.Warn("refresh diagnostic", "event_id", d.EventID, "reason", d.Reason)
	}
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
