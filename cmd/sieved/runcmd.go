package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftline/sieve/moderation"

	cli "github.com/urfave/cli/v2"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the HTTP API",
			Value:   ":8700",
			EnvVars: []string{"SIEVE_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":8701",
			EnvVars: []string{"SIEVE_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "admin-token",
			Usage:   "bearer token required for /admin endpoints",
			EnvVars: []string{"SIEVE_ADMIN_TOKEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		shutdownOTEL, err := configOTEL("sieved")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		pol, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		st, err := openStore(cctx, logger)
		if err != nil {
			return err
		}

		srv, err := NewServer(st, moderation.NewModerator(pol), Config{
			Logger:     logger,
			AdminToken: cctx.String("admin-token"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			logger.Info("shutting down")
			if err := srv.Shutdown(context.Background()); err != nil {
				logger.Error("shutdown error", "err", err)
			}
		}()

		return srv.RunAPI(cctx.String("bind"))
	},
}
