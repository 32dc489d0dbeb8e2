package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/baechuer/nippou-service/internal/application/auth"
	"github.com/baechuer/nippou-service/internal/application/report"
	"github.com/baechuer/nippou-service/internal/config"
	"github.com/baechuer/nippou-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/nippou-service/internal/infrastructure/email"
	"github.com/baechuer/nippou-service/internal/infrastructure/memory"
	"github.com/baechuer/nippou-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/nippou-service/internal/infrastructure/redis"
	"github.com/baechuer/nippou-service/internal/infrastructure/security"
	"github.com/baechuer/nippou-service/internal/logger"
	"github.com/baechuer/nippou-service/internal/tracing"
	http_handlers "github.com/baechuer/nippou-service/internal/transport/http/handlers"
	"github.com/baechuer/nippou-service/internal/transport/http/middleware"
	"github.com/baechuer/nippou-service/internal/transport/http/router"
)

const serviceName = "nippou"

// Version is stamped at build time with -ldflags.
var Version = "dev"

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(url, exchange string) (MailPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)

	InitTracing func(ctx context.Context, cfg tracing.Config) (*tracing.TracerProvider, error)
}

// MailPublisher is a mail transport holding a connection.
type MailPublisher interface {
	auth.Mailer
	Close() error
}

type stores struct {
	users   auth.UserRepo
	reports report.Repo
	pinger  http_handlers.Pinger
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	deps = withDefaults(deps)
	ctx := context.Background()

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) tracing
	tp, err := deps.InitTracing(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return fail(fmt.Errorf("init tracing: %w", err))
	}
	cleanupFns = append(cleanupFns, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(sctx)
	})

	// 2) stores
	st, closeDB, err := openStores(ctx, deps, cfg)
	if err != nil {
		return fail(err)
	}
	if closeDB != nil {
		cleanupFns = append(cleanupFns, closeDB)
	}

	// 3) redis (best-effort)
	var limiter middleware.RateLimiter
	var redisPinger http_handlers.Pinger
	if cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pctx)
		cancel()

		if err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; auth route limits disabled")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			limiter = redis.NewFixedWindowLimiter(c)
			redisPinger = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) mail transport
	mailer, closeMail, err := openMailer(deps, cfg)
	if err != nil {
		return fail(err)
	}
	if closeMail != nil {
		cleanupFns = append(cleanupFns, closeMail)
	}

	// 5) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// seed (dev only)
	if cfg.Env == "dev" {
		n := memory.SeedUsers(ctx, st.users, hasher)
		logger.Logger.Info().Int("created", n).Msg("dev users seeded")
	}

	// 6) services
	authSvc := auth.NewService(
		st.users,
		hasher,
		signer,
		newInstrumentedMailer(mailer, cfg.MailTransport),
		auth.Config{
			SessionTTL:    cfg.SessionTTL,
			VerifyURLBase: cfg.VerifyURLBase,
			ResetURLBase:  cfg.ResetURLBase,
		},
	)
	reportSvc := report.NewService(st.reports, report.Config{
		EnforceOwnership: cfg.ReportsEnforceOwnership,
	})

	// 7) handlers
	secureCookies := cfg.SecureCookies()
	authH := http_handlers.NewAuthHandler(authSvc, secureCookies)
	reportH := http_handlers.NewReportHandler(reportSvc, authSvc)
	healthH := http_handlers.NewHealthHandler(map[string]http_handlers.Pinger{
		"postgres": st.pinger,
		"redis":    redisPinger,
	})

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:  healthH,
		Auth:    authH,
		Reports: reportH,
		Session: middleware.Session(signer),
		Limiter: limiter,
		Options: router.Options{
			ServiceName: serviceName,
			CORSOrigins: cfg.CORSAllowOrigin,
			HSTS:        secureCookies,
			Tracing:     tp.Enabled(),
			PublicURL:   cfg.AppBaseURL,
			Version:     Version,
			RLEnabled:   cfg.RLEnabled,
			RLLimit:     cfg.RLLimit,
			RLWindow:    cfg.RLWindow,
		},
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	logger.Logger.Info().
		Str("env", cfg.Env).
		Str("mail_transport", cfg.MailTransport).
		Bool("postgres", st.pinger != nil).
		Bool("redis", limiter != nil).
		Bool("reports_enforce_ownership", cfg.ReportsEnforceOwnership).
		Msg("server wired")

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

// openStores picks Postgres when DB_ADDR is set and falls back to in-memory
// stores otherwise. Config validation already refuses an empty DB_ADDR outside dev.
func openStores(ctx context.Context, deps Deps, cfg *config.Config) (stores, func(), error) {
	if cfg.DBAddr == "" {
		logger.Logger.Warn().Msg("DB_ADDR not set; using in-memory stores")
		return stores{
			users:   memory.NewUserRepo(),
			reports: memory.NewReportRepo(),
		}, nil, nil
	}

	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return stores{}, nil, fmt.Errorf("connect postgres: %w", err)
	}
	closeDB := func() { _ = db.Close() }

	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := deps.Migrate(mctx, db); err != nil {
		closeDB()
		return stores{}, nil, fmt.Errorf("migrate: %w", err)
	}

	users := postgres.NewUserRepo(db)
	return stores{
		users:   users,
		reports: postgres.NewReportRepo(db),
		pinger:  users,
	}, closeDB, nil
}

// openMailer builds the transport named by MAIL_TRANSPORT. In dev an
// unreachable broker degrades to the log sender.
func openMailer(deps Deps, cfg *config.Config) (auth.Mailer, func(), error) {
	switch cfg.MailTransport {
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, logger.Logger), nil, nil

	case "rabbitmq":
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env == "dev" {
				logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; logging mail instead")
				return email.NewLogSender(logger.Logger), nil, nil
			}
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return pub, func() { _ = pub.Close() }, nil

	default:
		return email.NewLogSender(logger.Logger), nil, nil
	}
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (MailPublisher, error) {
			p, err := rabbitmq.NewPublisher(url, exchange)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		NewRouter:   router.New,
		InitTracing: tracing.InitTracing,
	}
}

func withDefaults(d Deps) Deps {
	def := defaultDeps()
	if d.LoadConfig == nil {
		d.LoadConfig = def.LoadConfig
	}
	if d.NewDB == nil {
		d.NewDB = def.NewDB
	}
	if d.Migrate == nil {
		d.Migrate = def.Migrate
	}
	if d.NewRedis == nil {
		d.NewRedis = def.NewRedis
	}
	if d.NewPublisher == nil {
		d.NewPublisher = def.NewPublisher
	}
	if d.NewRouter == nil {
		d.NewRouter = def.NewRouter
	}
	if d.InitTracing == nil {
		d.InitTracing = def.InitTracing
	}
	return d
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
