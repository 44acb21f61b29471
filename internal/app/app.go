package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/config"
	"github.com/five82/addressable/internal/keychain"
	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/metrics"
	"github.com/five82/addressable/internal/prefs"
	"github.com/five82/addressable/internal/session"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/ui"
)

// Options configure the Addressable application.
type Options struct {
	ConfigPath string
	EnvFile    string // dotenv file preloaded before the config; empty skips
	PrefsPath  string // empty uses default ~/.config/addressable/prefs.toml
	Origin     string // overrides the configured API origin, e.g. a mock server
	PollEvery  int    // seconds; zero uses the configured interval

	// LogWriter receives logs instead of the configured log file. The TUI
	// leaves it nil because it owns the terminal.
	LogWriter io.Writer
}

// Services is everything a front end needs to talk to Addressable.
type Services struct {
	Config    config.Config
	Logger    logging.Logger
	Keychain  keychain.Store
	Client    *addressable.Client
	Analytics analytics.Sink
	Events    *analytics.Recorder
	Metrics   *metrics.Metrics
	Session   *session.Manager

	closers []io.Closer
}

// Open loads configuration and opens the local stores. Callers must Close
// the result.
func Open(opts Options) (*Services, error) {
	if opts.EnvFile != "" {
		if err := config.LoadDotEnv(opts.EnvFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Origin != "" {
		if err := applyOrigin(&cfg, opts.Origin); err != nil {
			return nil, err
		}
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	s := &Services{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	if opts.LogWriter != nil {
		s.Logger = logging.New(opts.LogWriter, cfg.LogLevel)
	} else {
		logger, closer, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		s.Logger = logger
		s.closers = append(s.closers, closer)
	}

	keys, err := keychain.OpenBolt(cfg.KeychainPath())
	if err != nil {
		return nil, fmt.Errorf("open keychain: %w", err)
	}
	s.Keychain = keys
	s.closers = append(s.closers, keys)

	events, err := analytics.Open(cfg.AnalyticsPath(), analytics.Options{Logger: s.Logger})
	if err != nil {
		return nil, err
	}
	s.Events = events
	s.Analytics = events
	s.closers = append(s.closers, events)

	s.Metrics = metrics.New()
	client, err := addressable.NewClient(cfg.Origin(), keys,
		addressable.WithTransport(s.Metrics.InstrumentTransport(nil)),
		addressable.WithTimeout(cfg.RequestTimeout),
		addressable.WithLogger(s.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init addressable client: %w", err)
	}
	s.Client = client

	s.Session, err = session.New(session.Options{
		API:       client,
		Keychain:  keys,
		Analytics: events,
		Logger:    s.Logger,
	})
	if err != nil {
		return nil, err
	}

	ok = true
	return s, nil
}

// Close releases the stores in reverse order of opening.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// NewPoller returns a dashboard poller wired to the services. A rejected
// session is signed out locally.
func (s *Services) NewPoller(store *state.Store) *Poller {
	return &Poller{
		Store:    store,
		API:      s.Client,
		Metrics:  s.Metrics,
		Logger:   s.Logger.With("component", "poller"),
		Interval: s.Config.PollInterval,
		OnUnauthorized: func(ctx context.Context) {
			if err := s.Session.ForceLogout(ctx); err != nil {
				s.Logger.Error(ctx, "clear keychain after 401", "error", err)
			}
		},
	}
}

func applyOrigin(cfg *config.Config, origin string) error {
	if !strings.Contains(origin, "://") {
		cfg.Host = origin
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid origin %q", origin)
	}
	cfg.Scheme = u.Scheme
	cfg.Host = u.Host
	return nil
}

// Run boots the Addressable TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := Open(opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	log := svc.Logger
	log.Info(ctx, "starting addressable", "origin", svc.Config.Origin(), "environment", svc.Config.Environment)
	svc.Analytics.Record(ctx, analytics.AppOpened, nil)

	if addr := svc.Config.MetricsAddr; addr != "" {
		srv := metrics.NewServer(svc.Metrics, addr, log)
		if err := srv.Start(ctx); err != nil {
			log.Warn(ctx, "metrics server disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}
	}

	store := &state.Store{}
	polls := &pollControl{parent: ctx, poller: svc.NewPoller(store)}
	defer polls.Stop()

	if svc.Session.LoggedIn() {
		polls.Start()
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	uiOpts := ui.Options{
		Context:      ctx,
		API:          svc.Client,
		Session:      svc.Session,
		Store:        store,
		Poller:       polls,
		Analytics:    svc.Analytics,
		Metrics:      svc.Metrics,
		Logger:       log.With("component", "ui"),
		Config:       &svc.Config,
		ThemeName:    userPrefs.Theme,
		StatusFilter: addressable.MailingStatus(userPrefs.StatusFilter),
		PrefsPath:    opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}

// pollControl starts and stops the poller as the user signs in and out.
type pollControl struct {
	parent context.Context
	poller *Poller

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (c *pollControl) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.poller.Start(ctx)
}

func (c *pollControl) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *pollControl) Refresh(ctx context.Context) error {
	return c.poller.Refresh(ctx)
}
