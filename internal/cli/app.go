package cli

import (
	"fmt"
	"os"

	"github.com/hearth-hq/hearth/internal/action"
	"github.com/hearth-hq/hearth/internal/audit"
	"github.com/hearth-hq/hearth/internal/calendar"
	"github.com/hearth-hq/hearth/internal/channels"
	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/detect"
	"github.com/hearth-hq/hearth/internal/insight"
	"github.com/hearth-hq/hearth/internal/memory"
	"github.com/hearth-hq/hearth/internal/orchestrator"
	"github.com/hearth-hq/hearth/internal/ratelimit"
	"github.com/hearth-hq/hearth/internal/store"
	"github.com/hearth-hq/hearth/internal/subscription"
	"github.com/hearth-hq/hearth/internal/syncer"
	"github.com/hearth-hq/hearth/internal/trust"
)

// app bundles the wired services the commands share.
type app struct {
	cfg      *config.Config
	store    *store.Store
	provider *calendar.GoogleProvider
	subs     *subscription.Manager
	syncer   *syncer.Syncer
	engine   *detect.Engine
	insights *insight.Service
	send     *channels.Dispatcher
	limiter  *ratelimit.Limiter
	trust    *trust.Service
	workflow *action.Workflow
	memory   *memory.Service
	orch     *orchestrator.Service
	audit    *audit.Publisher
}

// newApp loads config and wires every service. The caller owns Close.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := calendar.NewGoogleProvider(
		cfg.Provider.WebhookURL,
		cfg.Provider.ChannelTTL,
		calendar.FileTokenSource(cfg.Provider.CredentialsFile, cfg.Provider.TokenFile),
	)

	dispatcher := channels.NewDispatcher(
		channels.NewSlackNotifier(cfg.Channels.Slack),
		channels.NewBridgeNotifier(cfg.Channels.Bridge),
	)
	limiter := ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval)

	insights := insight.NewService(st, dispatcher, limiter, cfg.Household)
	trustSvc := trust.NewService(st)
	workflow := action.NewWorkflow(st, trustSvc)
	mem := memory.NewService(st, cfg.Household.ID)
	auditor := audit.NewPublisher(cfg.Audit)
	executor := orchestrator.NewActionExecutor(provider, dispatcher, mem, cfg.Household.ParentA)

	return &app{
		cfg:      cfg,
		store:    st,
		provider: provider,
		subs:     subscription.NewManager(st, provider, cfg.Provider.RenewWindow),
		syncer:   syncer.New(st, provider, cfg.Household.ID, cfg.Provider.OwnerOf),
		engine:   detect.NewEngine(),
		insights: insights,
		send:     dispatcher,
		limiter:  limiter,
		trust:    trustSvc,
		workflow: workflow,
		memory:   mem,
		orch:     orchestrator.NewService(workflow, trustSvc, executor, dispatcher, auditor),
		audit:    auditor,
	}, nil
}

func (a *app) Close() {
	if err := a.audit.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "audit close: %v\n", err)
	}
	a.store.Close()
}

// mustApp wires the app or exits with the error.
func mustApp() *app {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}
