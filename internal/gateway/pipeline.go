package gateway

import (
	"context"
	"time"

	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/detect"
	"github.com/hearth-hq/hearth/internal/insight"
	"github.com/hearth-hq/hearth/internal/store"
	"github.com/hearth-hq/hearth/internal/syncer"
)

// How far around now the detection rules look.
const (
	analysisLookback  = 24 * time.Hour
	analysisLookahead = 8 * 24 * time.Hour
)

// Pipeline is the sync-then-detect path a webhook notification triggers.
type Pipeline struct {
	store     *store.Store
	syncer    *syncer.Syncer
	engine    *detect.Engine
	insights  *insight.Service
	household config.HouseholdConfig
	now       func() time.Time
}

// NewPipeline wires the notification pipeline.
func NewPipeline(st *store.Store, sy *syncer.Syncer, eng *detect.Engine, ins *insight.Service, household config.HouseholdConfig) *Pipeline {
	return &Pipeline{
		store:     st,
		syncer:    sy,
		engine:    eng,
		insights:  ins,
		household: household,
		now:       time.Now,
	}
}

// HandleNotification syncs the calendar behind a channel and, when anything
// changed, re-runs detection over the household's cached events.
func (p *Pipeline) HandleNotification(ctx context.Context, channelID string) error {
	res, err := p.syncer.SyncByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if res == nil || (len(res.Changed) == 0 && len(res.Deleted) == 0) {
		return nil
	}
	return p.Analyze(ctx)
}

// Analyze runs the detection rules over the current event cache and
// dispatches any resulting insights.
func (p *Pipeline) Analyze(ctx context.Context) error {
	now := p.now()
	rows, err := p.store.EventsForHousehold(p.household.ID, now.Add(-analysisLookback), now.Add(analysisLookahead))
	if err != nil {
		return err
	}
	events := make([]detect.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, detect.Event{
			ID:          row.ID,
			Owner:       row.Owner,
			Title:       row.Title,
			Description: row.Description,
			Start:       row.Start,
			End:         row.End,
		})
	}
	found := p.engine.Run(&detect.Context{
		Household: detect.Household{
			ID:          p.household.ID,
			ParentA:     p.household.ParentA,
			ParentB:     p.household.ParentB,
			Children:    p.household.Children,
			Location:    p.household.Location(),
			PickupStart: p.household.PickupStart,
			PickupEnd:   p.household.PickupEnd,
		},
		Events: events,
		Now:    now,
	})
	return p.insights.Process(ctx, found)
}
