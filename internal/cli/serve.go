package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/pokepalette/internal/cache"
	"github.com/jmylchreest/pokepalette/internal/config"
	"github.com/jmylchreest/pokepalette/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the palette API over HTTP",
		Long: `Serve the palette API over HTTP.

Endpoints:
  GET  /healthz                           liveness check
  POST /api/v1/palette                    multipart upload (field "sprite"), optional id and algorithm
  GET  /api/v1/palette?url=...&id=...     fetch a public sprite URL and extract its palette

Computed palettes are cached by sprite content, id and algorithm. The cache
backend is memory, redis, file or none.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.BindFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			if err := a.cfg.BindFlag(config.KeyCacheBackend, cmd.Flags().Lookup("cache")); err != nil {
				return err
			}
			return a.cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("cache", config.CacheMemory, "cache backend (memory, redis, file, none)")

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	opts, err := a.cfg.Options(nil)
	if err != nil {
		return err
	}

	settings := cache.Settings{
		Backend:       a.cfg.GetString(config.KeyCacheBackend),
		TTL:           a.cfg.GetDuration(config.KeyCacheTTL),
		Dir:           a.cfg.GetString(config.KeyCacheDir),
		RedisAddr:     a.cfg.GetString(config.KeyRedisAddr),
		RedisPassword: a.cfg.GetString(config.KeyRedisPassword),
		RedisDB:       a.cfg.GetInt(config.KeyRedisDB),
	}
	store, err := cache.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to open %s cache: %w", settings.Backend, err)
	}
	defer store.Close()
	a.logger.Debug("cache ready", "backend", settings.Backend, "ttl", settings.TTL)

	if !a.logger.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := server.New(server.Config{
		Options:           opts,
		Cache:             store,
		Logger:            a.logger.Named("server"),
		AllowPrivateHosts: a.cfg.GetBool(config.KeyAllowPrivate),
	})
	if err != nil {
		return err
	}

	a.logger.Info("starting server", "special_cases", len(opts.Rules))
	return srv.Run(ctx, a.cfg.GetString(config.KeyServerAddr))
}
