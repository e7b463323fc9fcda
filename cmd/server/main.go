package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/obarlas/campuslink/internal/cleanup"
	"github.com/obarlas/campuslink/internal/config"
	"github.com/obarlas/campuslink/internal/database"
	"github.com/obarlas/campuslink/internal/handler"
	"github.com/obarlas/campuslink/internal/mail"
	"github.com/obarlas/campuslink/internal/repository"
	"github.com/obarlas/campuslink/internal/router"
	"github.com/obarlas/campuslink/internal/service"
	"github.com/obarlas/campuslink/internal/session"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName,
		database.Pool{MaxOpen: cfg.DBMaxOpenConns, MaxIdle: cfg.DBMaxIdleConns})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	verifyTokens := repository.NewVerificationTokenRepo(db)
	resetTokens := repository.NewPasswordResetTokenRepo(db)

	mailer := buildMailer(cfg)
	if qm, ok := mailer.(*mail.QueueMailer); ok {
		defer qm.Close()
	}

	svc := service.NewAuthService(users, verifyTokens, resetTokens, mailer,
		service.DefaultRateLimits(), cfg.BcryptCost)
	sessions := session.NewManager(cfg.SessionSecret, session.DefaultTTL, cfg.IsProd())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanup.NewJanitor(0, verifyTokens, resetTokens).Run(ctx)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(svc, sessions), sessions)
	router.RegisterAdmin(e, handler.NewAdminHandler(svc), sessions)
	router.RegisterPages(e, sessions, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// buildMailer picks the transport: queue-backed dispatch when an AMQP
// broker is configured (with a consumer worker delivering over SMTP),
// direct SMTP otherwise, and a log-only mailer for development when
// no SMTP host is set.
func buildMailer(cfg config.Config) mail.Mailer {
	var deliverer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		deliverer = &mail.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
			BaseURL:  cfg.BaseURL,
		}
	}
	if cfg.AMQPURL == "" {
		return deliverer
	}
	go mail.StartConsumer(cfg.AMQPURL, deliverer)
	qm, err := mail.NewQueueMailer(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("mail queue: %v", err)
	}
	return qm
}
