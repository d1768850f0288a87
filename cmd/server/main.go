package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/assistant"
	"github.com/careguardian/careguardian-api/internal/config"
	"github.com/careguardian/careguardian-api/internal/database"
	"github.com/careguardian/careguardian-api/internal/dispatch"
	"github.com/careguardian/careguardian-api/internal/handler"
	"github.com/careguardian/careguardian-api/internal/logging"
	"github.com/careguardian/careguardian-api/internal/metrics"
	"github.com/careguardian/careguardian-api/internal/middleware"
	"github.com/careguardian/careguardian-api/internal/queue"
	"github.com/careguardian/careguardian-api/internal/repository"
	"github.com/careguardian/careguardian-api/internal/router"
	"github.com/careguardian/careguardian-api/internal/service"
	"github.com/careguardian/careguardian-api/internal/session"
	"github.com/careguardian/careguardian-api/internal/utils"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mysql")
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; sessions in mysql, rate limit and cache disabled")
	} else {
		defer rdb.Close()
	}

	m := metrics.New(nil)
	hasher := utils.NewCredentialHasher(cfg.ScryptN, cfg.ScryptR, cfg.ScryptP)
	users := repository.NewUserRepo(db)

	var sessions session.SessionStore
	if rdb != nil {
		sessions = repository.NewRedisSessionStore(rdb, "cg:session")
	} else {
		repo := repository.NewSessionRepo(db)
		sessions = repo
		go purgeSessions(ctx, repo, log)
	}
	gate := session.NewGate(users, sessions, hasher, cfg.SessionTTL, log, session.WithObserver(m))

	dc := config.LoadDispatchConfig()
	engineOpts := []dispatch.Option{dispatch.WithObserver(m)}
	if cfg.RabbitURL != "" {
		broker := service.RabbitBroker{URL: cfg.RabbitURL, Timeout: 2 * time.Second}
		engineOpts = append(engineOpts, dispatch.WithNotifier(service.NewDispatchPublisher(broker, log)))
		go func() {
			if err := queue.StartDispatchConsumer(ctx, cfg.RabbitURL, cfg.EventLogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("dispatch consumer stopped")
			}
		}()
	}
	engine := dispatch.NewEngine(repository.NewDispatchStore(db), dispatch.Policy{
		EmergencyRadiusKm: dc.EmergencyRadiusKm,
		NormalRadiusKm:    dc.NormalRadiusKm,
		ClaimAttempts:     dc.ClaimAttempts,
		FallbackNumber:    dc.FallbackNumber,
	}, log, engineOpts...)

	var completer assistant.Completer
	if cfg.LLMAPIKey != "" {
		gc, err := assistant.NewGeminiCompleter(ctx, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			log.Warn().Err(err).Msg("llm client unavailable; assistant will use fallbacks")
		} else {
			defer gc.Close()
			completer = gc
		}
	} else {
		log.Info().Msg("no LLM key configured; assistant will use fallbacks")
	}
	asst := assistant.NewService(completer, repository.NewAssistantRepo(db), cfg.LLMTimeout, log,
		assistant.WithObserver(m), assistant.WithEmergencyNumber(dc.FallbackNumber))

	if cfg.SeedOnStart {
		s := seeder{
			users:      users,
			hospitals:  repository.NewHospitalRepo(db),
			ambulances: repository.NewAmbulanceRepo(db),
			hasher:     hasher,
			log:        log,
		}
		if err := s.run(ctx, cfg.SeedAdminPass); err != nil {
			log.Error().Err(err).Msg("seeding failed")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log))

	guards := router.NewGuards(gate, cfg.SessionSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	dh := handler.NewDispatchHandler(engine, log)
	ah := handler.NewAssistantHandler(asst, log)

	router.RegisterRoutes(e, db, nil)
	router.RegisterAuth(e, handler.NewAuthHandler(gate, cfg.SessionSecret, cfg.SecureCookies(), log), guards)
	router.RegisterPublic(e, dh, ah, guards)
	router.RegisterMember(e, dh, ah, guards)
	router.RegisterOperator(e, dh, guards)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

// purgeSessions removes expired MySQL sessions hourly. Redis sessions
// expire on their own.
func purgeSessions(ctx context.Context, repo *repository.SessionRepo, log zerolog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged expired sessions")
			}
		}
	}
}
