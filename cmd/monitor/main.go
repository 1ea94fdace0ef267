package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/core/ports"
	"kickpulse/internal/core/services"
	httphandlers "kickpulse/internal/handlers/http"
	"kickpulse/internal/infrastructure/capture"
	"kickpulse/internal/infrastructure/kick"
	"kickpulse/internal/infrastructure/middleware"
	"kickpulse/internal/infrastructure/monitoring"
	"kickpulse/internal/infrastructure/sessionlog"
	"kickpulse/pkg/config"
	"kickpulse/pkg/logger"
	"kickpulse/pkg/tracing"
	"kickpulse/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	channel := flag.String("channel", "", "channel name, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *channel != "" {
		cfg.Session.Channel = *channel
	}
	cfg.Session.Channel = strings.ToLower(cfg.Session.Channel)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "kickpulse",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer tp.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := kick.NewResolver(kick.ResolverConfig{
		APIBase: cfg.Kick.APIBase,
		Proxy:   cfg.Kick.Proxy,
		Timeout: cfg.Kick.RequestTimeout,
	}, log)
	defer resolver.Close()

	chatroomID := domain.ChatroomID(cfg.Session.ChatroomID)
	var initialViewers *int
	if chatroomID == "" {
		info, err := resolver.ResolveChannel(ctx, cfg.Session.Channel)
		if err != nil {
			log.Fatalw("failed to resolve channel", "channel", cfg.Session.Channel, "error", err)
		}
		chatroomID = info.ChatroomID
		initialViewers = info.ViewerCount
		if cfg.Screenshot.StreamURL == "" {
			cfg.Screenshot.StreamURL = info.PlaybackURL
		}
	}

	session := domain.NewSession(cfg.Session.Channel, chatroomID)

	logPath := cfg.SessionLog.Path
	if logPath == "" {
		logPath = fmt.Sprintf("kick-session-%s-%s.jsonl",
			utils.FileSlug(session.Label()), utils.Timestamp(session.StartedAt))
	}
	writer, err := sessionlog.NewWriter(sessionlog.WriterConfig{
		Path:  logPath,
		Fsync: cfg.SessionLog.Fsync,
	})
	if err != nil {
		log.Fatalw("failed to create session log", "path", logPath, "error", err)
	}

	var instr ports.Instrumentation = ports.NopInstrumentation{}
	if cfg.Monitoring.PrometheusEnabled {
		instr = monitoring.NewPrometheusCollector()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	var coordinator *services.CaptureCoordinator
	if cfg.CaptureEnabled() {
		streamURL := cfg.Screenshot.StreamURL
		if streamURL == "" {
			streamURL, err = resolver.ResolveStreamURL(ctx, cfg.Session.Channel)
			if err != nil {
				log.Fatalw("screenshots enabled but stream url unavailable", "error", err)
			}
		}

		dir := cfg.Screenshot.Dir
		if dir == "" {
			dir = strings.TrimSuffix(logPath, ".jsonl") + "-screenshots"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalw("failed to create screenshot directory", "dir", dir, "error", err)
		}

		capturer, err := capture.NewFFmpeg(cfg.Screenshot.FFmpegPath, log)
		if err != nil {
			log.Fatalw("ffmpeg unavailable", "error", err)
		}

		coordinator = services.NewCaptureCoordinator(services.CaptureConfig{
			StreamURL:    streamURL,
			Dir:          dir,
			Format:       cfg.Screenshot.Format,
			FilePrefix:   utils.FileSlug(session.Label()),
			Interval:     cfg.Screenshot.Interval,
			OnSnapshot:   cfg.Screenshot.OnSnapshot,
			Timeout:      cfg.Screenshot.Timeout,
			MaxArtifacts: cfg.Screenshot.Max,
			Embed:        cfg.Screenshot.Embed,
			EmbedWidth:   cfg.Screenshot.EmbedWidth,
		}, capturer, instr, log)
	}

	chatClient := kick.NewChatClient(kick.ChatClientConfig{
		PusherURL:  cfg.Kick.PusherURL,
		ChatroomID: chatroomID,
	}, log)
	var poller *kick.ViewerPoller
	if cfg.Session.Channel != "" {
		poller = kick.NewViewerPoller(resolver, cfg.Session.Channel, cfg.Kick.ViewerPollInterval, log)
	}
	source := kick.NewSource(chatClient, poller)

	engine := services.NewEngine(session, source, writer, coordinator, services.SchedulerConfig{
		Interval:    cfg.Snapshot.Interval,
		MaxDuration: cfg.Session.Duration,
		Inactivity:  cfg.Session.Inactivity,
	}, instr, log)

	if initialViewers != nil {
		engine.HandleViewerCount(domain.ViewerCountEvent{
			Count:      *initialViewers,
			Valid:      true,
			ReceivedAt: time.Now().UTC(),
		})
	}

	if cfg.API.Enabled {
		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		if cfg.Tracing.Enabled {
			router.Use(middleware.TracingMiddleware())
		}
		httphandlers.NewSessionHandler(engine).SetupRoutes(router)

		srv := &http.Server{Addr: cfg.API.Address, Handler: router}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("stats api server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	log.Infow("logging session", "path", logPath)

	runErr := engine.Run(ctx)
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Errorw("session ended with error", "error", runErr)
		os.Exit(1)
	}
}
