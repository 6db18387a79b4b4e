// Package leads provides the funnel bounded context module: lead lifecycle,
// scoring, and the hot list.
package leads

import (
	"context"
	"fmt"

	"funnel_crm_backend/internal/events"
	apphttp "funnel_crm_backend/internal/http"
	"funnel_crm_backend/internal/leads/handler"
	"funnel_crm_backend/internal/leads/hotlist"
	"funnel_crm_backend/internal/leads/lifecycle"
	"funnel_crm_backend/internal/leads/repository"
	"funnel_crm_backend/internal/leads/scoring"
	"funnel_crm_backend/internal/scheduler"
	"funnel_crm_backend/platform/logger"
	"funnel_crm_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	lifecycle *lifecycle.Service
	scores    *scoring.Service
	repo      *repository.Repository
	hot       *hotlist.HotList
	log       *logger.Logger
}

// Deps are the external dependencies of the module. Scheduler and Redis are
// optional: without them score recomputes run inline and the hot list
// endpoint reports unavailable.
type Deps struct {
	Pool              *pgxpool.Pool
	Bus               events.Bus
	Validator         *validator.Validator
	Logger            *logger.Logger
	Redis             *redis.Client
	Scheduler         scheduler.ScoreScheduler
	ScoringConfigPath string
}

// NewModule creates and wires the leads module, including its event
// subscriptions.
func NewModule(deps Deps) (*Module, error) {
	repo := repository.New(deps.Pool)

	scoringCfg, err := scoring.LoadConfig(deps.ScoringConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}

	engine := scoring.NewEngine(scoringCfg)
	scores := scoring.NewService(repo, engine, deps.Bus, deps.Logger)
	lifecycleSvc := lifecycle.New(repo, deps.Bus, deps.Validator, engine, deps.Logger)

	var hot *hotlist.HotList
	if deps.Redis != nil {
		hot = hotlist.New(deps.Redis, deps.Logger)
	}

	m := &Module{
		handler:   handler.New(lifecycleSvc, scores, hot),
		lifecycle: lifecycleSvc,
		scores:    scores,
		repo:      repo,
		hot:       hot,
		log:       deps.Logger,
	}
	m.subscribe(deps.Bus, deps.Scheduler)

	return m, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Lifecycle returns the lifecycle service for the task worker.
func (m *Module) Lifecycle() *lifecycle.Service {
	return m.lifecycle
}

// Scores returns the scoring service for the task worker.
func (m *Module) Scores() *scoring.Service {
	return m.scores
}

// RegisterRoutes mounts the leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/hot", m.handler.HotLeads)
	group.GET("/:id", m.handler.GetByID)
	group.POST("/:id/move", m.handler.Move)
	group.POST("/:id/close", m.handler.CloseDeal)
	group.PUT("/:id/close", m.handler.AmendClose)
	group.POST("/:id/actions", m.handler.RecordAction)
	group.GET("/:id/movements", m.handler.ListMovements)
	group.GET("/:id/activities", m.handler.ListActivities)
	group.POST("/score/recalculate-all", m.handler.RecalculateAllScores)
	group.POST("/:id/score/recalculate", m.handler.RecalculateScore)
	group.GET("/:id/score/history", m.handler.ScoreHistory)
	group.GET("/:id/notes", m.handler.ListNotes)
	group.POST("/:id/notes", m.handler.AddNote)
	group.PUT("/:id/tags", m.handler.UpdateTags)
}

// RebuildHotList repopulates the Redis hot list from the database. Called at
// startup so the list survives Redis restarts.
func (m *Module) RebuildHotList(ctx context.Context) error {
	if m.hot == nil {
		return nil
	}
	hotLeads, err := m.repo.ListByTiers(ctx, []string{"A", "B"})
	if err != nil {
		return err
	}
	entries := make([]hotlist.Entry, 0, len(hotLeads))
	for _, lead := range hotLeads {
		entries = append(entries, hotlist.Entry{LeadID: lead.ID, Overall: lead.Score.Overall})
	}
	return m.hot.Rebuild(ctx, entries)
}

// subscribe wires the module's event handlers: score recomputes follow lead
// creation and recorded actions, and the hot list follows score changes.
func (m *Module) subscribe(bus events.Bus, sched scheduler.ScoreScheduler) {
	recompute := events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		var leadID string
		switch e := event.(type) {
		case events.LeadCreated:
			leadID = e.LeadID.String()
		case events.LeadActionRecorded:
			leadID = e.LeadID.String()
		default:
			return nil
		}

		if sched != nil {
			return sched.EnqueueScoreRecalculation(ctx, leadID)
		}
		// No queue configured: recompute inline.
		id, err := uuid.Parse(leadID)
		if err != nil {
			return err
		}
		_, err = m.scores.Recalculate(ctx, id)
		return err
	})
	bus.Subscribe(events.LeadCreated{}.EventName(), recompute)
	bus.Subscribe(events.LeadActionRecorded{}.EventName(), recompute)

	if m.hot != nil {
		bus.Subscribe(events.LeadScoreChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
			changed, ok := event.(events.LeadScoreChanged)
			if !ok {
				return nil
			}
			return m.hot.Update(ctx, changed.LeadID, changed.Tier, changed.Overall)
		}))
	}
}
