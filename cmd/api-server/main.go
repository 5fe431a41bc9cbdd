package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/setu007/play-scraper-render/internal/archive"
	"github.com/setu007/play-scraper-render/internal/auth"
	"github.com/setu007/play-scraper-render/internal/events"
	"github.com/setu007/play-scraper-render/internal/grpcserver"
	"github.com/setu007/play-scraper-render/internal/pipeline"
	"github.com/setu007/play-scraper-render/internal/runs"
	"github.com/setu007/play-scraper-render/pkg/database"
	"github.com/setu007/play-scraper-render/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $PLAYSCOUT_CONFIG)")
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	p, err := pipeline.New(cfg, log.Default())
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	hub := events.NewHub()
	p.Runner.Observer = hub

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	runs.RegisterStatusRoutes(router.Group(""))

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTDuration)
	guard := auth.Guard(cfg.Auth.Enabled, tokens)
	if cfg.Auth.Enabled {
		auth.NewHandler(cfg.Auth.AdminPasswordHash, tokens).RegisterRoutes(router.Group("/auth"))
	}

	router.GET("/ws", guard, events.WSHandler(hub))

	runsHandler := runs.NewHandler(p, p.Bounds)

	var archiveDB interface{ PingContext(context.Context) error }
	if cfg.Archive.Enabled {
		dbCfg := database.DefaultConfig()
		if cfg.Archive.Path != "" {
			dbCfg.Path = cfg.Archive.Path
		}
		db, err := database.OpenArchive(dbCfg)
		if err != nil {
			log.Fatalf("archive: %v", err)
		}
		defer db.Close()
		archiveDB = db

		repo := archive.NewRepo(db)
		runsHandler.Archive = repo
		archive.NewHandler(repo).RegisterRoutes(router.Group("/reports", guard))
		log.Printf("[api] archiving runs to %s", dbCfg.Path)
	}
	runsHandler.RegisterRoutes(router.Group(""), guard)

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		if archiveDB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := archiveDB.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":     "not_ready",
					"db_error":   err.Error(),
					"ws_clients": stats.WSClients,
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"mode":        cfg.Source.Mode,
			"auth":        cfg.Auth.Enabled,
			"archive":     cfg.Archive.Enabled,
			"ws_clients":  stats.WSClients,
			"events_sent": stats.EventsSent,
		})
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcSrv *grpcserver.Server
	if cfg.HTTP.GRPCAddr != "" {
		grpcSrv = grpcserver.NewServer(cfg.HTTP.GRPCAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[api] HTTP listening on %s (mode=%s, auth=%t)", cfg.HTTP.Addr, cfg.Source.Mode, cfg.Auth.Enabled)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(grpcSrv.ListenAndServe)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("[api] shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[api] http shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("[api] server error: %v", err)
		os.Exit(1)
	}
	log.Println("[api] servers stopped")
}
