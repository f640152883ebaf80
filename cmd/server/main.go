package main // Entry point package

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jacrowe/clientbook/internal/auth"
	"github.com/jacrowe/clientbook/internal/config"
	"github.com/jacrowe/clientbook/internal/database"
	"github.com/jacrowe/clientbook/internal/handler"
	"github.com/jacrowe/clientbook/internal/queue"
	"github.com/jacrowe/clientbook/internal/repository"
	"github.com/jacrowe/clientbook/internal/router"
	queue_publisher "github.com/jacrowe/clientbook/internal/service"
	"github.com/jacrowe/clientbook/internal/utils"
	"github.com/jacrowe/clientbook/internal/validation"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clientbook").Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		log = log.Level(lvl)
	}

	cfg := config.Load()

	keys, err := config.LoadKeys(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load signing keys")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		if cfg.AuthScheme == config.SchemeSession {
			// The session scheme cannot run without its store.
			log.Fatal().Msg("redis unavailable and AUTH_SCHEME=session")
		}
		log.Warn().Msg("redis unavailable; rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	clients := repository.NewClientRepo(db)
	projects := repository.NewProjectRepo(db)

	// Bind the credential pipeline to the configured scheme. Lifecycle
	// handlers only ever see the scheme-neutral interfaces.
	var (
		verifier      auth.CredentialVerifier
		authenticator auth.Authenticator
	)
	switch cfg.AuthScheme {
	case config.SchemeSession:
		sessions := repository.NewSessionRepo(rdb, cfg.SessionTTL)
		verifier = &auth.SessionVerifier{Sessions: sessions}
		authenticator = &auth.SessionAuthenticator{Sessions: sessions, TTL: cfg.SessionTTL}
	case config.SchemeToken:
		verifier = &auth.TokenVerifier{Public: keys.Public}
		authenticator = &auth.TokenAuthenticator{Private: keys.Private, TTL: cfg.AuthTokenTTL}
	}

	hashParams := utils.DefaultArgon2Params()
	notifier := queue_publisher.NewNotifier(log)

	go queue.StartAccountConsumer(log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	router.Register(e, router.Deps{
		Auth: handler.NewAuthHandler(users, authenticator, hashParams, log, notifier),
		Account: &handler.AccountHandler{
			Users:      users,
			Auth:       authenticator,
			Keys:       keys,
			Hash:       hashParams,
			ConfirmTTL: cfg.ConfirmTokenTTL,
			Log:        log,
			Notify:     notifier,
		},
		Clients:  handler.NewClientHandler(clients, log),
		Projects: handler.NewProjectHandler(projects, log),
		Verifier: verifier,
		Users:    users,
		RDB:      rdb,
		Log:      log,
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Str("scheme", cfg.AuthScheme).Msg("listening")

	e.Server.ReadHeaderTimeout = 10 * time.Second
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
