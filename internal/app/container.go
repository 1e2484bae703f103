package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/doeshing/matrixsh/internal/application/doctor"
	"github.com/doeshing/matrixsh/internal/application/shell"
	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/infrastructure/ai"
	"github.com/doeshing/matrixsh/internal/infrastructure/classifier"
	"github.com/doeshing/matrixsh/internal/infrastructure/config"
	contextcollector "github.com/doeshing/matrixsh/internal/infrastructure/context"
	"github.com/doeshing/matrixsh/internal/infrastructure/executor"
	"github.com/doeshing/matrixsh/internal/infrastructure/history"
	"github.com/doeshing/matrixsh/internal/infrastructure/security"
	"github.com/doeshing/matrixsh/internal/pkg/logger"
	"github.com/doeshing/matrixsh/internal/ports"
)

// IndexFile is the name of the search index inside the history directory.
const IndexFile = "index.db"

// Options are the per-invocation inputs to BuildContainer.
type Options struct {
	Verbose    bool
	ConfigPath string
	Overrides  domain.SessionOverrides
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	SessionID    string
	Config       domain.Config
	ConfigLoader *config.FileLoader
	Logger       *logger.StdLogger
	Guardrail    *security.Guardrail
	Classifier   *classifier.Rules
	Executor     *executor.LocalExecutor
	HistoryStore *history.FileStore
	// HistoryIndex is nil when indexing is disabled or the database could not be opened.
	HistoryIndex *history.SQLiteIndex
	Collector    *contextcollector.BasicCollector
	// Gateway is nil when SettingsErr is set.
	Gateway       *ai.Client
	SettingsErr   error
	DoctorService *doctor.Service
}

// BuildContainer constructs the dependency graph. Only configuration that
// cannot be read or a rules file that cannot be compiled is fatal here;
// invalid gateway settings are kept in SettingsErr so that diagnostics and
// history commands still work.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStartupConfig, err)
	}
	cfg = cfg.Apply(opts.Overrides)

	sessionID := uuid.NewString()
	log := logger.NewStd(opts.Verbose).With(map[string]interface{}{"session": sessionID})

	guardrail, err := security.NewGuardrail(cfg.Security.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStartupConfig, err)
	}

	storeOpts := []history.Option{history.WithSession(sessionID)}
	var index *history.SQLiteIndex
	if cfg.History.Index {
		index, err = history.NewSQLiteIndex(filepath.Join(cfg.History.Dir, IndexFile))
		if err != nil {
			log.Warn("history index disabled", map[string]interface{}{"error": err.Error()})
			index = nil
		} else {
			storeOpts = append(storeOpts, history.WithIndex(index, log))
		}
	}
	historyStore := history.NewFileStore(cfg.History.Dir, storeOpts...)

	exec := executor.NewLocalExecutor(cfg.GetShellMode())

	container := &Container{
		SessionID:    sessionID,
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Logger:       log,
		Guardrail:    guardrail,
		Classifier:   classifier.New(),
		Executor:     exec,
		HistoryStore: historyStore,
		HistoryIndex: index,
		Collector:    contextcollector.NewBasicCollector(historyStore),
	}

	container.DoctorService = &doctor.Service{
		ConfigProvider: overrideProvider{loader: cfgLoader, overrides: opts.Overrides},
		Denylist:       guardrail,
		ShellBinary:    exec.Binary(),
		HistoryDir:     cfg.History.Dir,
	}

	settings, err := cfg.Settings()
	if err != nil {
		container.SettingsErr = err
		return container, nil
	}
	container.Gateway = ai.NewClient(settings, log)
	container.DoctorService.Gateway = container.Gateway
	log.Debug("container ready", map[string]interface{}{
		"mode":     string(exec.Mode()),
		"endpoint": container.Gateway.Endpoint(),
		"index":    index != nil,
	})
	return container, nil
}

// ShellService builds the interactive loop around console and presenter.
// It fails with the settings error when no gateway could be configured.
func (c *Container) ShellService(console ports.Console, presenter ports.Presenter) (*shell.Service, error) {
	if c.SettingsErr != nil {
		return nil, c.SettingsErr
	}
	return &shell.Service{
		Classifier:  c.Classifier,
		Executor:    c.Executor,
		Gate:        c.Guardrail,
		Suggestions: c.Gateway,
		History:     c.HistoryStore,
		Context:     c.Collector,
		Console:     console,
		Presenter:   presenter,
		Logger:      c.Logger,
		Stream:      c.Config.UI.Stream,
	}, nil
}

// overrideProvider reloads the file configuration with the CLI flags applied.
type overrideProvider struct {
	loader    ports.ConfigProvider
	overrides domain.SessionOverrides
}

func (p overrideProvider) Load(ctx context.Context) (domain.Config, error) {
	cfg, err := p.loader.Load(ctx)
	if err != nil {
		return cfg, err
	}
	return cfg.Apply(p.overrides), nil
}

// Close releases the search index.
func (c *Container) Close() error {
	if c.HistoryIndex == nil {
		return nil
	}
	return c.HistoryIndex.Close()
}
