package main

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/orientraid/raidapi/config"
	"github.com/orientraid/raidapi/db"
	"github.com/orientraid/raidapi/handlers"
	applog "github.com/orientraid/raidapi/logger"
	mw "github.com/orientraid/raidapi/middleware"
	"github.com/orientraid/raidapi/scoring"
)

//go:embed all:build/*
var embeddedFiles embed.FS

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	var points scoring.PointsPolicy = scoring.LinearPolicy{}
	if cfg.PointsCSV != "" {
		f, err := os.Open(cfg.PointsCSV)
		if err != nil {
			logger.Fatal("open points table failed", zap.Error(err))
		}
		points, err = scoring.LoadTablePolicy(f)
		_ = f.Close()
		if err != nil {
			logger.Fatal("load points table failed", zap.Error(err))
		}
		logger.Info("points table loaded", zap.String("path", cfg.PointsCSV))
	}

	h := handlers.New(bdb, cfg.JWTKey(), cfg.Thresholds(), points)

	e := echo.New()
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/api/signin", h.Signin)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", mw.JWT(cfg.JWTKey()))
	api.POST("/password-hash", h.PasswordHash)

	api.GET("/raids", h.Raids)
	api.POST("/raids", h.CreateRaid)
	api.GET("/raids/:id/races", h.RaidRaces)
	api.POST("/raids/:id/races", h.CreateRace)

	api.GET("/categories", h.Categories)
	api.POST("/categories", h.CreateCategory)

	api.GET("/teams", h.Teams)
	api.POST("/teams", h.CreateTeam)
	api.POST("/teams/:id/eligibility", h.TeamEligibility)
	api.POST("/eligibility/check", h.CheckEligibility)

	api.GET("/races/:id/results", h.RaceResults)
	api.POST("/races/:id/results", h.SaveResults)
	api.DELETE("/races/:id/results/:userID", h.DeleteResult)

	api.GET("/races/:id/leaderboard", h.IndividualLeaderboard)
	api.GET("/races/:id/leaderboard.csv", h.IndividualLeaderboardCSV)
	api.GET("/races/:id/team-leaderboard", h.TeamLeaderboard)
	api.GET("/races/:id/team-leaderboard.csv", h.TeamLeaderboardCSV)

	// Strip the "build/" prefix so URLs work correctly
	subFS, err := fs.Sub(embeddedFiles, "build")
	if err != nil {
		logger.Fatal("open embedded build fs failed", zap.Error(err))
	}
	// Serve static files correctly using Echo's WrapHandler
	fileServer := http.FileServer(http.FS(subFS))
	e.GET("/*", func(c echo.Context) error {
		path := c.Request().URL.Path

		// If request is for a static file, serve it
		if strings.Contains(path, ".") { // Matches JS, CSS, images, etc.
			http.StripPrefix("/", fileServer).ServeHTTP(c.Response(), c.Request())
			return nil
		}
		// Otherwise, serve `index.html` for client-side routing (SPA fallback)
		indexFile, err := subFS.Open("index.html")

		if err != nil {
			return c.NoContent(http.StatusNotFound)
		}
		defer indexFile.Close()

		return c.Stream(http.StatusOK, "text/html", indexFile)
	})

	if cfg.Debug || len(cfg.TLSDomains) == 0 {
		logger.Info("starting server", zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
