package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/config"
	"github.com/proovit/proovit/internal/db"
	"github.com/proovit/proovit/internal/lock"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/service"
	"github.com/proovit/proovit/internal/storage"
	"github.com/proovit/proovit/internal/verifier"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Location         *time.Location
	Storage          storage.Storage
	Verifier         verifier.Verifier
	AuthService      *service.AuthService
	ProfileService   *service.ProfileService
	GoalService      *service.GoalService
	StreakEngine     *service.StreakEngine
	ProofService     *service.ProofService
	FeedService      *service.FeedService
	ReconcileService *service.ReconcileService

	closers []func() error
}

func New(cfg *config.Config) (*App, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %v", err)
	}

	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Storage
	imageStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	a := &App{Cfg: cfg, DB: database, Location: location, Storage: imageStorage}

	// Per-goal streak lock: shared through Redis when several instances run
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedis(cfg.RedisURL, cfg.StreakLockTTL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize redis lock: %v", err)
		}
		a.closers = append(a.closers, redisLock.Close)
		locker = redisLock
		slog.Info("using redis streak lock")
	}

	a.Verifier = newVerifier(cfg, imageStorage)

	// Repositories
	profileRepository := repository.NewProfileRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	proofRepository := repository.NewProofRepository(database)
	streakRepository := repository.NewStreakRepository(database)
	friendshipRepository := repository.NewFriendshipRepository(database)

	// Services
	a.AuthService = service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	a.ProfileService = service.NewProfileService(
		profileRepository,
		friendshipRepository,
		goalRepository,
		streakRepository,
		cfg.UsernameSearchLimit,
	)
	a.GoalService = service.NewGoalService(goalRepository, streakRepository)
	a.StreakEngine = service.NewStreakEngine(streakRepository, locker, cfg.StreakMaxRetries)
	a.ProofService = service.NewProofService(
		proofRepository,
		imageStorage,
		a.Verifier,
		a.StreakEngine,
		service.ProofServiceConfig{
			AuditRejected: cfg.ProofAuditRejected,
			SignedURLTTL:  cfg.ProofSignedURLTTL,
			Location:      location,
		},
	)
	a.FeedService = service.NewFeedService(friendshipRepository, imageStorage, cfg.FeedLimit, cfg.ProofSignedURLTTL)
	a.ReconcileService = service.NewReconcileService(proofRepository, streakRepository, location)

	return a, nil
}

// newVerifier prefers a remote verify-proof endpoint when one is configured.
func newVerifier(cfg *config.Config, signer verifier.URLSigner) verifier.Verifier {
	if cfg.VerifierURL != "" {
		slog.Info("using remote verifier", "url", cfg.VerifierURL)
		return verifier.NewRemoteClient(cfg.VerifierURL, cfg.VerifierToken, cfg.VerifierTimeout)
	}

	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, proof verification will fail")
	}

	return verifier.NewVisionClient(signer, verifier.VisionConfig{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Timeout:      cfg.VerifierTimeout,
		SignedURLTTL: cfg.VerifierSignedURLTTL,
	})
}

func (a *App) Close() error {
	for _, c := range a.closers {
		err := c()
		if err != nil {
			slog.Error("failed to close resource", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
