package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"

	"autoplay/pkg/clockplayer"
	"autoplay/pkg/debughttp"
	xlog "autoplay/pkg/log"
	"autoplay/pkg/playback"
	"autoplay/pkg/resume"
	"autoplay/pkg/scheduler"
	"autoplay/pkg/scroll"
	"autoplay/pkg/sdlview"
	"autoplay/pkg/settings"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/source"
	"autoplay/screens/feed"
	"autoplay/ui"
)

const (
	targetFPS  = 60
	itemHeight = 220
)

// env is the process configuration read from the environment and .env.
type env struct {
	title        string
	feedSource   string
	region       string
	accessKey    string
	secretKey    string
	cacheDir     string
	settingsPath string
	resumeDB     string
	metricsAddr  string
	prepareDelay time.Duration
	clipLength   time.Duration
}

func loadEnv() env {
	return env{
		title:        getenv("GAME_TITLE", "Autoplay Feed"),
		feedSource:   getenv("FEED_SOURCE", "assets/videos"),
		region:       getenv("AWS_DEFAULT_REGION", "us-east-1"),
		accessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		secretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		cacheDir:     getenv("CACHE_DIR", "assets/cache"),
		settingsPath: getenv("SETTINGS_PATH", "settings.json"),
		resumeDB:     os.Getenv("RESUME_DB"),
		metricsAddr:  os.Getenv("METRICS_ADDR"),
		prepareDelay: getDuration("PREPARE_DELAY", 300*time.Millisecond),
		clipLength:   getDuration("CLIP_LENGTH", 30*time.Second),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d >= 0 {
		return d
	}
	return fallback
}

func main() {
	// SDL must stay on the main OS thread.
	runtime.LockOSThread()

	envErr := godotenv.Load()
	xlog.Configure(xlog.Config{})
	logger := xlog.WithComponent("main")
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("main: .env file not found")
	}

	if err := run(logger, loadEnv()); err != nil {
		logger.Fatal().Err(err).Msg("main: exiting")
	}
	logger.Info().Msg("main: shut down")
}

func run(logger zerolog.Logger, cfg env) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	st := settings.Load(cfg.settingsPath)

	items, resolver, err := openFeed(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open feed %s: %w", cfg.feedSource, err)
	}
	logger.Info().Int("items", len(items.Items)).Str(xlog.FieldSource, cfg.feedSource).Msg("main: feed listed")

	store, err := resume.NewStore(cfg.resumeDB)
	if err != nil {
		return err
	}
	defer store.Close()
	seed, err := store.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("main: resume positions unavailable")
	}
	writer := resume.NewWriter(store, xlog.WithComponent("resume"))

	backend := clockplayer.New(clockplayer.Config{PrepareDelay: cfg.prepareDelay, Loop: cfg.clipLength})
	res := playback.NewResource(backend, resolver, playback.Config{
		BindTimeout: st.BindTimeoutDuration(),
		Logger:      xlog.WithComponent("playback"),
	})

	if err := initializeSDL2(logger); err != nil {
		return fmt.Errorf("initialize SDL2: %w", err)
	}
	defer sdl.Quit()

	width, height := displayDimensions(logger)
	window, err := createWindow(cfg.title, width, height)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	renderer, err := createRenderer(window, logger)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()

	presenter := sdlview.NewPresenter(width, height)
	sched := scheduler.New(res,
		scheduler.WithPolicy(st.Policy()),
		scheduler.WithPresenter(presenter),
		scheduler.WithResume(seed, writer),
	)
	trigger := scroll.NewTrigger(st.ScrollTickHz, func() { _ = sched.Tick() })

	// The writer outlives the scheduler so the position recorded on shutdown
	// still reaches the store.
	writerCtx, stopWriter := context.WithCancel(context.Background())
	defer stopWriter()
	var flush errgroup.Group
	flush.Go(func() error { return writer.Run(writerCtx) })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return trigger.Run(gctx) })
	// The settings watcher is best-effort; a missing directory only disables reloads.
	g.Go(func() error {
		err := settings.Watch(gctx, cfg.settingsPath, 250*time.Millisecond, xlog.WithComponent("settings"), func(s settings.Settings) {
			if err := sched.UpdatePolicy(s.Policy()); err != nil {
				logger.Warn().Err(err).Msg("main: policy update rejected")
			}
			trigger.SetRate(s.ScrollTickHz)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("main: settings reload disabled")
		}
		return nil
	})
	if cfg.metricsAddr != "" {
		g.Go(func() error {
			return debughttp.Serve(gctx, cfg.metricsAddr, debughttp.NewRouter(sched.Snapshot), xlog.WithComponent("debughttp"))
		})
	}

	fonts, err := ui.LoadFonts()
	if err != nil {
		logger.Warn().Err(err).Msg("main: fonts unavailable")
	}
	defer fonts.Close()

	screen := feed.NewScreen(feed.Config{
		Renderer:  renderer,
		Fonts:     fonts,
		Scheduler: sched,
		Presenter: presenter,
		Notify:    trigger.Notify,
		Feed:      items,
		Layout: feed.Layout{
			Viewport:   sdl.Rect{W: width, H: height},
			ItemHeight: itemHeight,
			Gap:        16,
			Margin:     24,
		},
		Loop:   cfg.clipLength,
		Logger: xlog.WithComponent("feed"),
	})
	trigger.Notify()

	loopErr := runGameLoop(gctx, screen, logger)
	screen.Close()
	cancel()
	waitErr := g.Wait()
	stopWriter()
	if err := flush.Wait(); err != nil {
		logger.Warn().Err(err).Msg("main: resume writer")
	}
	if waitErr != nil {
		return waitErr
	}
	return loopErr
}

// openFeed lists the feed and builds the resolver for its sources.
func openFeed(ctx context.Context, cfg env) (sharedTypes.Feed, source.Resolver, error) {
	local := source.LocalResolver{}
	if rest, ok := strings.CutPrefix(cfg.feedSource, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		api, err := source.NewS3Client(cfg.region, cfg.accessKey, cfg.secretKey)
		if err != nil {
			return sharedTypes.Feed{}, nil, err
		}
		items, err := source.ListS3Feed(ctx, api, bucket, prefix)
		if err != nil {
			return sharedTypes.Feed{}, nil, err
		}
		mux := source.Mux{
			"s3":   source.NewS3Resolver(api, cfg.cacheDir, xlog.WithComponent("source")),
			"file": local,
			"":     local,
		}
		return items, mux, nil
	}
	items, err := source.ListLocalFeed(cfg.feedSource)
	if err != nil {
		return sharedTypes.Feed{}, nil, err
	}
	return items, source.Mux{"file": local, "": local}, nil
}

// runGameLoop polls SDL, updates and draws the feed at a fixed rate until the
// window closes or ctx is cancelled.
func runGameLoop(ctx context.Context, screen *feed.Screen, logger zerolog.Logger) error {
	frameTime := time.Second / targetFPS
	for {
		start := time.Now()
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if _, ok := event.(*sdl.QuitEvent); ok {
				return nil
			}
			screen.HandleEvent(event)
		}
		if ctx.Err() != nil {
			logger.Info().Msg("main: context cancelled, leaving render loop")
			return nil
		}

		if err := screen.Update(); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		if err := screen.Draw(); err != nil {
			return fmt.Errorf("draw: %w", err)
		}

		if elapsed := time.Since(start); elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}
