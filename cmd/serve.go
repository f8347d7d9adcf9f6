package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"smartclassroom/internal/assistant"
	"smartclassroom/internal/chat"
	"smartclassroom/internal/config"
	"smartclassroom/internal/controller"
	"smartclassroom/internal/middleware"
	"smartclassroom/internal/mqtt"
	"smartclassroom/internal/repository"
	"smartclassroom/internal/routes"
	"smartclassroom/internal/service"
	"smartclassroom/internal/session"
	"smartclassroom/internal/simulator"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

// app is the wired server.
type app struct {
	handler http.Handler
	manager *session.Manager
	closers []func()
}

func (a *app) close() {
	if err := a.manager.Close(); err != nil {
		zap.L().Warn("session teardown failed", zap.Error(err))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	gateway, err := assistant.NewFromConfig(ctx, cfg.Assistant, logger.Named("assistant"))
	if err != nil {
		return nil, fmt.Errorf("error creating assistant: %w", err)
	}

	a := &app{}
	telemetry := service.NewTelemetryService(
		service.WithExportTimeout(cfg.Telemetry.ExportTimeout),
		service.WithBreaker(uint32(cfg.Telemetry.TripAfter), cfg.Telemetry.Cooldown),
		service.WithLogger(logger.Named("telemetry")),
	)
	a.closers = append(a.closers, addExporters(ctx, cfg, telemetry, logger)...)

	a.manager = session.NewManager(
		func() *simulator.Store {
			return simulator.New(
				simulator.WithInterval(cfg.TickInterval),
				simulator.WithLogger(logger.Named("simulator")),
			)
		},
		func(s *simulator.Store) *chat.Panel {
			return chat.NewPanel(gateway, s, chat.WithLogger(logger.Named("chat")))
		},
		session.WithWorker(telemetry.Follow),
		session.WithLogger(logger.Named("session")),
	)

	controllers := routes.Controllers{
		Session:   controller.NewSessionController(a.manager, logger),
		Classroom: controller.NewClassroomController(a.manager, cfg.ClassroomID, cfg.CORSAllowedOrigins, logger),
		Chat:      controller.NewChatController(a.manager, logger),
	}
	if cfg.RateLimit.ChatPerMinute > 0 {
		limiter, err := middleware.NewRateLimiter(cfg.RateLimit.ChatPerMinute, cfg.RateLimit.ChatBurst)
		if err != nil {
			a.close()
			return nil, err
		}
		controllers.ChatLimit = limiter.Limit
	}

	router := mux.NewRouter()
	router.Use(middleware.Recover(logger), middleware.RequestLogger(logger.Named("http")))
	routes.RegisterRoutes(router, controllers)

	a.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
	return a, nil
}

// addExporters registers the configured telemetry sinks and returns their
// release functions. A sink that cannot be reached at startup is skipped.
func addExporters(ctx context.Context, cfg config.Config, telemetry *service.TelemetryService, logger *zap.Logger) []func() {
	var closers []func()

	if cfg.InfluxDB.Enabled() {
		repo := repository.NewInfluxDBRepository(cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket, logger.Named("influxdb"))
		if err := repo.EnsureBucket(ctx); err != nil {
			logger.Warn("could not ensure InfluxDB bucket", zap.String("bucket", repo.Bucket()), zap.Error(err))
		}
		telemetry.AddExporter("influxdb", service.InfluxDBExporter(repo, cfg.ClassroomID))
		closers = append(closers, repo.Close)
	}

	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewClient(cfg.MQTT, logger)
		if err != nil {
			logger.Warn("MQTT export disabled", zap.Error(err))
		} else {
			pub := mqtt.NewPublisher(client.Native(), cfg.MQTT.Topic, cfg.ClassroomID, logger.Named("mqtt"))
			telemetry.AddExporter("mqtt", service.ExporterFunc(pub.PublishSnapshot))
			closers = append(closers, client.Close)
		}
	}
	return closers
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("url", fmt.Sprintf("http://localhost:%s", cfg.Port)),
			zap.String("classroom", cfg.ClassroomID))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
