package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/server"
	"github.com/abhisek/genlearn/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		shutdownTracing, err := telemetry.Init(ctx, appLog, telemetry.Config{
			Enabled:     cfg.Telemetry.Enabled,
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Env,
			Version:     version,
		})
		if err != nil {
			appLog.Warn("tracing disabled", "error", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				appLog.Warn("trace flush failed", "error", err)
			}
		}()

		return withApp(cmd, func(_ context.Context, a *application) error {
			if !a.verifier.Enabled() {
				appLog.Warn("auth.jwt_secret not set; bearer tokens will be rejected and all learners are anonymous")
			}
			srv := server.New(server.Config{
				Addr:           cfg.HTTP.Addr,
				AllowedOrigins: cfg.HTTP.AllowedOrigins,
				ReadTimeout:    cfg.HTTP.ReadTimeout,
				WriteTimeout:   cfg.HTTP.WriteTimeout,
				ServiceName:    cfg.Telemetry.ServiceName,
			}, server.Deps{
				Catalog:  a.catalog,
				Tracker:  a.tracker,
				Labs:     a.labs,
				Chat:     a.client,
				Verifier: a.verifier,
				Logger:   appLog,
			})
			return srv.Run(ctx)
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
