package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pondside/parley/internal/config"
	"github.com/pondside/parley/internal/db"
	"github.com/pondside/parley/internal/llm"
	"github.com/pondside/parley/internal/orchestrator"
	"github.com/pondside/parley/internal/request"
	"github.com/pondside/parley/internal/store"
	"github.com/pondside/parley/internal/tui"
	"github.com/pondside/parley/internal/tui/events"
	"github.com/pondside/parley/internal/watcher"
)

const maxCellBytes = 256

// loadConfig loads the config file and layers any flags the user set
// on top. Flag overrides are session-only; they are never written back.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Manager, error) {
	mgr, err := config.NewManager(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	cfg := mgr.Get()
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = opts.Provider
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = opts.Endpoint
	}
	if flags.Changed("model") {
		cfg.Model = opts.Model
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return mgr, nil
}

// newLogger builds the structured logger. Output goes to a file, never
// the terminal: the alternate screen owns stdout while the program
// runs. When the log file cannot be opened the logger stays quiet.
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	path := cfg.LogFile
	if path == "" {
		if dir, err := config.Dir(); err == nil {
			path = filepath.Join(dir, "parley.log")
		}
	}
	if path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
			logger.SetOutput(f)
			return logger
		}
	}
	logger.SetOutput(io.Discard)
	return logger
}

// services binds the units of work to the live connection and the
// configured model. The translator is built on first use so the
// program starts fine with no model server running.
type services struct {
	cfg   *config.Config
	conns *ConnHolder
	log   *logrus.Logger

	mu         sync.Mutex
	translator *llm.Translator
	schemaDDL  string
}

func (s *services) units() orchestrator.Units {
	return orchestrator.Units{
		Translate:         s.translate,
		Execute:           s.execute,
		Schema:            s.schema,
		NeedsConfirmation: s.needsConfirmation,
	}
}

func (s *services) limits() db.Limits {
	lim := db.DefaultLimits()
	if s.cfg.MaxRows > 0 {
		lim.MaxRows = s.cfg.MaxRows
	}
	lim.MaxCellBytes = maxCellBytes
	return lim
}

func (s *services) translate(ctx context.Context, question string, hooks orchestrator.Hooks) (orchestrator.Translation, error) {
	t, err := s.getTranslator(ctx)
	if err != nil {
		return orchestrator.Translation{}, fmt.Errorf("model unavailable: %w", err)
	}
	ddl, err := s.currentDDL(ctx)
	if err != nil {
		return orchestrator.Translation{}, err
	}

	tr, err := t.Translate(ctx, question, ddl, llm.Hooks{
		Phase: hooks.Phase,
		Chunk: hooks.Chunk,
	})
	if err != nil {
		return orchestrator.Translation{}, err
	}
	return orchestrator.Translation{
		SQL:        tr.SQL,
		Commentary: tr.Commentary,
		Model:      tr.Model,
	}, nil
}

func (s *services) execute(ctx context.Context, stmt string, _ orchestrator.Hooks) (interface{}, error) {
	conn, ok := s.conns.Conn()
	if !ok {
		return nil, ErrNoDatabase
	}
	return conn.Exec(ctx, stmt, s.limits())
}

func (s *services) schema(ctx context.Context) (interface{}, error) {
	conn, ok := s.conns.Conn()
	if !ok {
		return nil, ErrNoDatabase
	}
	sch, err := conn.Introspect(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.schemaDDL = sch.DDL()
	s.mu.Unlock()
	return sch, nil
}

func (s *services) needsConfirmation(stmt string) (bool, string, string) {
	if _, readOnly, ok := s.conns.Current(); ok && readOnly {
		// The write will be rejected before it runs; no point asking.
		return false, "", ""
	}
	need, reason := db.NeedsConfirmation(stmt)
	if !need {
		return false, "", ""
	}
	return true, reason, db.Keyword(stmt)
}

// getTranslator builds the model client on first use and keeps it.
func (s *services) getTranslator(ctx context.Context) (*llm.Translator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.translator != nil {
		return s.translator, nil
	}
	t, err := llm.New(ctx, llm.Options{
		Provider: s.cfg.Provider,
		Endpoint: s.cfg.Endpoint,
		Model:    s.cfg.Model,
		APIKey:   s.cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}
	s.translator = t
	s.log.WithFields(logrus.Fields{
		"provider": s.cfg.Provider,
		"model":    t.ModelName(),
	}).Info("model client ready")
	return t, nil
}

// currentDDL returns the cached schema DDL, introspecting once when
// no schema refresh has run yet.
func (s *services) currentDDL(ctx context.Context) (string, error) {
	s.mu.Lock()
	ddl := s.schemaDDL
	s.mu.Unlock()
	if ddl != "" {
		return ddl, nil
	}

	conn, ok := s.conns.Conn()
	if !ok {
		return "", ErrNoDatabase
	}
	sch, err := conn.Introspect(ctx)
	if err != nil {
		return "", fmt.Errorf("load schema: %w", err)
	}
	ddl = sch.DDL()
	s.mu.Lock()
	s.schemaDDL = ddl
	s.mu.Unlock()
	return ddl, nil
}

// runTUI wires every service together and runs the program until the
// user quits.
func runTUI(cmd *cobra.Command, opts *RootOptions) error {
	mgr, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg := mgr.Get()
	log := newLogger(cfg)

	dir, err := config.Dir()
	if err != nil {
		return err
	}

	st, err := store.Open(filepath.Join(dir, "parley.db"))
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer st.Close()
	if err := st.Prune(cfg.HistoryLimit); err != nil {
		log.WithError(err).Warn("history prune failed")
	}

	profsPath := filepath.Join(dir, "connections.yaml")
	profs, err := store.LoadProfiles(profsPath)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	broker := events.NewBroker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	holder := NewConnHolder(log, nil)
	defer holder.Close()

	svc := &services{cfg: cfg, conns: holder, log: log}
	orch := orchestrator.New(orchestrator.Config{
		Broker:           broker,
		Units:            svc.units(),
		Logger:           log,
		MaxDepth:         cfg.QueueDepth,
		ProgressInterval: time.Duration(cfg.ProgressIntervalMS) * time.Millisecond,
		SkipConfirmation: opts.NoConfirm || !cfg.ConfirmDestructive,
	})
	orch.Start(ctx)

	// The watcher turns external writes to the database file into
	// schema-refresh requests. Attached after the orchestrator exists
	// so the callback never sees a half-built one.
	fw, err := watcher.New(log, watcher.DefaultDebounce, func() {
		if _, err := orch.Submit("", request.TypeSchema); err != nil {
			log.WithError(err).Debug("schema refresh not queued")
		}
	})
	if err != nil {
		return fmt.Errorf("start file watcher: %w", err)
	}
	defer fw.Close()
	holder.SetWatcher(fw)

	if path, readOnly := startupDatabase(cfg, profs, opts); path != "" {
		if err := holder.Connect(path, readOnly); err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
	}

	m := tui.New(tui.Deps{
		Broker:    broker,
		Orch:      orch,
		Store:     st,
		Profiles:  profs,
		ProfsPath: profsPath,
		Config:    mgr,
		Connector: holder,
		Log:       log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	cancel()
	select {
	case <-orch.Done():
	case <-time.After(2 * time.Second):
		log.Warn("shutdown timed out waiting for in-flight work")
	}
	return nil
}

// startupDatabase picks the database to open at launch: explicit flag
// or argument first, then the config file, then the default profile.
func startupDatabase(cfg *config.Config, profs *store.Profiles, opts *RootOptions) (path string, readOnly bool) {
	if cfg.Database != "" {
		return cfg.Database, opts.ReadOnly
	}
	if prof, ok := profs.DefaultProfile(); ok {
		return prof.Path, opts.ReadOnly || prof.ReadOnly
	}
	return "", false
}
