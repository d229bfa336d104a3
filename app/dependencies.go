package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/juju/clock"
	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/clients"
	"github.com/udehnih/review-rating/config"
	"github.com/udehnih/review-rating/handlers"
	"github.com/udehnih/review-rating/internal/observability"
	"github.com/udehnih/review-rating/middleware"
	"github.com/udehnih/review-rating/repositories"
	"github.com/udehnih/review-rating/repositories/postgres"
	"github.com/udehnih/review-rating/services/authority"
	"github.com/udehnih/review-rating/services/review"
	"github.com/udehnih/review-rating/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Clock   clock.Clock
	Metrics *observability.Metrics

	// Repositories
	Reviews     repositories.ReviewRepository
	Authorities repositories.AuthorityRepository
	TxManager   repositories.TransactionManager

	// AuthorityCache is set when lookup mode runs with a cache
	AuthorityCache *authority.CachedRepository

	// Auth core
	Codec          *token.Codec
	Validator      *token.Validator
	Revocations    *token.RevocationList
	Authenticator  *auth.Authenticator
	AuthMiddleware *middleware.AuthMiddleware

	// Peer services
	Courses  *clients.CourseClient
	Students *clients.StudentClient

	// Services
	ReviewService *review.Service

	// Handlers
	ReviewHandler    *handlers.ReviewHandler
	AuthHandler      *handlers.AuthHandler
	AuthorityHandler *handlers.AuthorityHandler
	HealthHandler    *handlers.HealthHandler

	stopBackground context.CancelFunc
}

// NewDependencies opens the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithDB(ctx, cfg, db, clock.WallClock, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithDB wires dependencies around an already opened database
func NewDependenciesWithDB(ctx context.Context, cfg *config.Config, db *postgres.DB, clk clock.Clock, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		DB:      db,
		Logger:  logger,
		Clock:   clk,
		Metrics: observability.NewMetrics(),
	}

	if cfg.Database.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := deps.initClients(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize service clients: %w", err)
	}

	deps.initServices()
	deps.startBackground(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("algorithm", cfg.Auth.Algorithm),
		zap.String("role_source", cfg.Auth.RoleSource))
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	factory := postgres.NewRepositoryFactoryFromDB(d.DB, d.Logger)
	repos := factory.NewRepositories()

	d.Reviews = repos.Reviews
	d.Authorities = repos.Authorities
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initAuth loads the signing material once and builds the inbound gate on top of it
func (d *Dependencies) initAuth(cfg *config.Config) error {
	material, err := cfg.Auth.SigningMaterial()
	if err != nil {
		return err
	}

	d.Codec, err = token.NewCodec(material, token.CodecConfig{
		Issuer: cfg.Auth.Issuer,
		Clock:  d.Clock,
	})
	if err != nil {
		return err
	}

	d.Revocations = token.NewRevocationList(d.Clock)
	d.Validator, err = token.NewValidator(material, token.ValidatorConfig{
		Clock:       d.Clock,
		Issuer:      cfg.Auth.Issuer,
		Revocations: d.Revocations,
	})
	if err != nil {
		return err
	}

	var lookup auth.AuthorityLookup
	if cfg.Auth.RoleSource == config.RoleSourceLookup {
		if cfg.Auth.LookupCacheTTL > 0 {
			d.AuthorityCache = authority.NewCachedRepository(d.Authorities, cfg.Auth.LookupCacheSize, cfg.Auth.LookupCacheTTL, d.Clock)
			d.Authorities = d.AuthorityCache
		}
		lookup = d.Authorities
	}
	resolver, err := auth.NewResolver(auth.RoleSource(cfg.Auth.RoleSource), lookup, d.Logger)
	if err != nil {
		return err
	}

	d.Authenticator = auth.NewAuthenticator(d.Codec, d.Validator, resolver)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Authenticator, d.Metrics, d.Logger)

	d.Logger.Info("auth initialized", zap.Stringer("material", material))
	return nil
}

// initClients builds the peer-service clients behind the propagating transport
func (d *Dependencies) initClients(cfg *config.Config) error {
	transport := clients.NewPropagatingTransport(http.DefaultTransport, d.Logger)

	base := clients.Config{
		Timeout:    cfg.Services.Timeout,
		MaxRetries: cfg.Services.MaxRetries,
		RetryDelay: cfg.Services.RetryDelay,
		Clock:      d.Clock,
	}

	courseCfg := base
	courseCfg.BaseURL = cfg.Services.CourseURL
	courses, err := clients.NewCourseClient(courseCfg, transport, d.Metrics, d.Logger)
	if err != nil {
		return err
	}

	studentCfg := base
	studentCfg.BaseURL = cfg.Services.AuthURL
	students, err := clients.NewStudentClient(studentCfg, transport, d.Metrics, d.Logger)
	if err != nil {
		return err
	}

	d.Courses = courses
	d.Students = students
	return nil
}

// initServices builds the review service and the HTTP handlers
func (d *Dependencies) initServices() {
	d.ReviewService = review.NewService(d.Reviews, d.TxManager, d.Courses, d.Students, d.Clock, d.Logger)

	d.ReviewHandler = handlers.NewReviewHandler(d.ReviewService, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.Revocations, d.Logger)
	d.AuthorityHandler = handlers.NewAuthorityHandler(d.Authorities, d.Clock, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Clock, d.Logger)
}

// startBackground runs the periodic cleanup loops until Close
func (d *Dependencies) startBackground(cfg *config.Config) {
	bg, cancel := context.WithCancel(context.Background())
	d.stopBackground = cancel

	go d.Revocations.Run(bg, cfg.Auth.RevocationGCInterval)
	if d.AuthorityCache != nil {
		go d.AuthorityCache.Run(bg, cfg.Auth.LookupCacheTTL)
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.stopBackground != nil {
		d.stopBackground()
	}

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
