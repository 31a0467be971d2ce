package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/sakif/portfolio/internal/apiclient"
	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/imagehost"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/perf"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/repository/redis"
	"github.com/sakif/portfolio/internal/repository/sqlite"
	"github.com/sakif/portfolio/internal/router"
	"github.com/sakif/portfolio/internal/service"
)

type appOptions struct {
	verbose   bool
	metrics   bool
	assumeYes bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// app is every store and client one command needs, wired once per run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   repository.KeyValueStore
	monitor *perf.Monitor
	metrics bool

	api      *apiclient.Client
	images   *imagehost.Client
	notifier *service.NotificationService
	session  *service.SessionStore
	projects *service.ProjectStore
	ratings  *service.RatingWorkflow
	admin    *service.Admin
	contact  *service.Contact
	theme    *service.Theme
	nav      *router.Navigator

	in        *bufio.Reader
	out       io.Writer
	assumeYes bool

	printMu sync.Mutex
	printed map[string]bool
	unsubs  []func()
}

// newApp wires the application.
//
// ORDER MATTERS:
//
//  1. config, logger, storage
//  2. the API client, whose bearer transport asks the session for a token
//  3. the session, which needs the API client for login/register
//  4. everything that reads the session (stores, guards, routes)
//
// Steps 2 and 3 depend on each other; sessionTokens breaks the cycle.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.App.Level()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(opts.errOut, &slog.HandlerOptions{Level: level}))

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := repository.ResetLegacy(ctx, store); err != nil {
		logger.Warn("clearing legacy keys", slog.String("error", err.Error()))
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		monitor:   perf.NewMonitor(logger),
		metrics:   opts.metrics,
		notifier:  service.NewNotificationService(logger),
		in:        bufio.NewReader(opts.in),
		out:       opts.out,
		assumeYes: opts.assumeYes,
		printed:   map[string]bool{},
	}
	a.unsubs = append(a.unsubs, a.notifier.Notifications().Subscribe(a.printNotifications))

	tokens := &sessionTokens{}
	clientOpts := []apiclient.Option{
		apiclient.WithLogger(logger),
		apiclient.WithMonitor(a.monitor),
	}
	if cfg.API.Timeout > 0 {
		clientOpts = append(clientOpts, apiclient.WithTimeout(cfg.API.Timeout))
	}
	a.api = apiclient.New(cfg.API.BaseURL, tokens, clientOpts...)

	a.session, err = service.NewSessionStore(ctx, store, a.api, a.notifier, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("loading session: %w", err)
	}
	tokens.set(a.session)

	a.images = imagehost.NewClient(imagehost.Config{
		BaseURL:      cfg.ImageHost.BaseURL,
		CloudName:    cfg.ImageHost.CloudName,
		UploadPreset: cfg.ImageHost.UploadPreset,
	}, logger, a.monitor)

	a.projects = service.NewProjectStore(a.api, a.session, a.notifier, logger)
	a.ratings = service.NewRatingWorkflow(a.api, a.session, a.notifier, logger)
	a.admin = service.NewAdmin(a.projects, a.api, a.images, a.session, a.notifier, logger)
	a.contact = service.NewContact(a.api, a.notifier, logger)

	a.theme, err = service.NewTheme(ctx, store, nil, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.nav = router.NewNavigator(router.Routes(router.Guards{
		Auth:         router.AuthGuard(a.session, a.notifier),
		Admin:        router.AdminGuard(a.session),
		ContactLeave: router.UnsavedChangesGuard(a.contact, a.confirm),
	}), logger)

	return a, nil
}

// openStore picks the backend from the DSN: redis:// URLs go to Redis,
// anything else is a SQLite file path.
func openStore(ctx context.Context, cfg config.StorageConfig) (repository.KeyValueStore, error) {
	if cfg.UsesRedis() {
		s, err := redis.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	if dir := filepath.Dir(cfg.DSN); dir != "." && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	s, err := sqlite.New(cfg.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) close() {
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil

	if a.session != nil {
		a.session.Close()
	}
	a.notifier.Close()

	if a.metrics {
		a.monitor.LogSummary()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing storage", slog.String("error", err.Error()))
	}
}

// printNotifications echoes each notification once, when it first appears.
// Auto-dismissal only removes entries, so it never prints anything.
func (a *app) printNotifications(list []model.Notification) {
	a.printMu.Lock()
	defer a.printMu.Unlock()

	for _, n := range list {
		if a.printed[n.ID] {
			continue
		}
		a.printed[n.ID] = true
		fmt.Fprintf(a.out, "%s %s\n", notificationTag(n.Type), n.Message)
	}
}

func notificationTag(t model.NotificationType) string {
	switch t {
	case model.NotificationSuccess:
		return "[ok]"
	case model.NotificationError:
		return "[error]"
	case model.NotificationWarning:
		return "[warn]"
	default:
		return "[info]"
	}
}

// confirm asks a yes/no question on the terminal. --yes answers for the user;
// end of input counts as no.
func (a *app) confirm(prompt string) bool {
	if a.assumeYes {
		return true
	}
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(a.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// prompt reads one line, for values not given as flags.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// enter navigates to path and fails when a guard sends the user elsewhere.
// The guard itself has already shown why (e.g. "Please log in to continue.").
func (a *app) enter(path string) (*router.ActivatedRoute, error) {
	nav, err := a.nav.Navigate(path)
	if err != nil {
		return nil, err
	}
	if nav.Blocked {
		return nil, fmt.Errorf("navigation to %s was cancelled", path)
	}
	if len(nav.Redirects) > 0 {
		return nil, fmt.Errorf("%s is not available, redirected to %s", path, nav.Route.URL())
	}
	return nav.Route, nil
}

// sessionTokens hands the API client the session's token once the session
// exists. Until then every request goes out anonymous.
type sessionTokens struct {
	mu      sync.RWMutex
	session *service.SessionStore
}

func (t *sessionTokens) set(s *service.SessionStore) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = s
}

func (t *sessionTokens) Token() (*oauth2.Token, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return nil, service.ErrNoSession
	}
	return t.session.Token()
}

var _ oauth2.TokenSource = (*sessionTokens)(nil)
