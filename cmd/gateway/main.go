// Command gateway runs the authenticated proxy in front of the backend
// API: it terminates browser sessions, runs the OIDC login flow, and
// forwards resource requests with a Bearer token.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/config"
	"github.com/studentsadda/studentsadda/internal/gateway"
	"github.com/studentsadda/studentsadda/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	cfg := config.LoadGateway()
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis is required for the session store")
	}
	sessions := gateway.NewSessionStore(rdb, time.Duration(cfg.SessionTTLHours)*time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	identity, err := gateway.NewIdentity(ctx, cfg, sessions, log)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("identity init failed")
	}

	proxy, err := gateway.NewProxy(cfg.BackendURL, identity, log)
	if err != nil {
		log.WithError(err).Fatal("invalid backend URL")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	gateway.RegisterRoutes(e, identity, proxy)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "backend": cfg.BackendURL}).Info("gateway listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
