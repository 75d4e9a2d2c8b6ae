package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"partner-service/internal/auth"
	authmw "partner-service/internal/auth/middleware"
	"partner-service/internal/config"
	"partner-service/internal/handler"
	"partner-service/internal/repository"
	"partner-service/internal/router"
	"partner-service/internal/usecase"
	"partner-service/migrations"
	"partner-service/pkg/id"
	"partner-service/pkg/jwtutil"
)

type Server struct {
	HTTP      *http.Server
	Autosaver *usecase.DraftAutosaver
	logger    *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	// --- DB connection ---
	db, err := config.ConnectDB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrations.Apply(ctx, db); err != nil {
		return nil, err
	}

	// --- Repositories ---
	requestRepo := repository.NewSignupRequestRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	onboardingRepo := repository.NewOnboardingRepo(db)

	// --- Snowflake for credential identifiers ---
	sf, err := id.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Auth provider + middleware ---
	signer := jwtutil.NewSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	provider := auth.NewLocalProvider(db, rdb, signer, sf, cfg.SessionTTL)
	authMiddleware := authmw.NewAuthenticator(signer, provider)

	// --- Usecases ---
	lifecycleUC := usecase.NewPartnerLifecycleUsecase(requestRepo, accountRepo, provider, logger)
	onboardingUC := usecase.NewOnboardingUsecase(onboardingRepo, cfg.OnboardingSteps, logger)
	autosaver := usecase.NewDraftAutosaver(onboardingUC, 0, logger)

	// --- Handlers ---
	partnerHandler := handler.NewPartnerHandler(lifecycleUC, onboardingUC, autosaver, logger)

	// --- HTTP router ---
	r := chi.NewRouter()
	r = router.SetupRoutes(r, partnerHandler, authMiddleware, rdb).(*chi.Mux)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	return &Server{
		HTTP:      httpSrv,
		Autosaver: autosaver,
		logger:    logger,
	}, nil
}

// StartHTTP runs the HTTP server.
func (s *Server) StartHTTP() error {
	s.logger.Info("partner HTTP service listening", zap.String("addr", s.HTTP.Addr))
	return s.HTTP.ListenAndServe()
}

// Shutdown stops the HTTP server and cancels pending autosave timers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Autosaver.Close()
	return s.HTTP.Shutdown(ctx)
}
