// Command api runs the StudentsAdda backend REST service.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/config"
	"github.com/studentsadda/studentsadda/internal/database"
	"github.com/studentsadda/studentsadda/internal/handler"
	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/queue"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/router"
	"github.com/studentsadda/studentsadda/internal/service"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(database.Config{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.WithError(err).Fatal("database open failed")
	}
	defer db.Close()

	verifier, err := buildVerifier(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("token verifier init failed")
	}

	users := repository.NewUserRepo(db)
	libraries := repository.NewLibraryRepo(db)
	seatTypes := repository.NewSeatTypeRepo(db)
	seats := repository.NewSeatRepo(db)
	bookings := repository.NewBookingRepo(db)
	plans := repository.NewMembershipRepo(db)
	forum := repository.NewForumRepo(db)
	dashboards := repository.NewDashboardRepo(db)

	pub := service.NewPublisher(os.Getenv("RABBITMQ_URL"), log)
	mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, log)
	go queue.StartBookingConsumer(os.Getenv("RABBITMQ_URL"), mailer, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	// Redis-backed rate limiting; degrades gracefully when Redis is
	// unreachable.  The response cache is handed to the router, which
	// mounts it on the public browse routes only.
	rdb := config.NewRedisClient()
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	h := router.Handlers{
		Users:       handler.NewUserHandler(users, verifier, log),
		Libraries:   handler.NewLibraryHandler(libraries, seatTypes, users, log),
		SeatTypes:   handler.NewSeatTypeHandler(seatTypes, libraries, log),
		Seats:       handler.NewSeatHandler(seats, seatTypes, libraries, log),
		Bookings:    handler.NewBookingHandler(bookings, seats, seatTypes, libraries, pub, log, cfg.BcryptCost),
		Memberships: handler.NewMembershipHandler(plans, libraries, log),
		Forum:       handler.NewForumHandler(forum, log),
		Dashboards:  handler.NewDashboardHandler(dashboards, bookings, libraries, log),
	}
	router.Register(e, h, middleware.Authenticate(verifier, users), cache)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("api listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// buildVerifier picks the token verifier: a static RSA key when supplied
// (development), otherwise OIDC discovery against the configured issuer.
func buildVerifier(cfg config.Config, log *logrus.Logger) (middleware.TokenVerifier, error) {
	if cfg.AuthPublicKeyPEM != "" {
		log.Warn("using static RSA public key for token verification")
		return middleware.NewStaticVerifier([]byte(cfg.AuthPublicKeyPEM), cfg.OIDCIssuer, cfg.OIDCAudience)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCAudience)
}
