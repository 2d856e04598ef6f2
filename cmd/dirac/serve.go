package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dirac/internal/api"
	"github.com/samcharles93/dirac/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxVolume   int64
		keep        int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve operator checks over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-volume",
				Usage:       "largest site count a request may ask for (volume times n5 for dwf)",
				Value:       api.DefaultMaxVolume,
				Destination: &maxVolume,
			},
			&cli.Int64Flag{
				Name:        "keep",
				Usage:       "number of check reports kept for GET /v1/check/:id",
				Value:       128,
				Destination: &keep,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadUserConfig(), &addr, &maxVolume)

			server := api.NewServer(api.NewReportStore(int(keep)), log, int(maxVolume))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "max_volume", maxVolume)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
