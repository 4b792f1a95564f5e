package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaos-io/cutout/handler"
	"github.com/chaos-io/cutout/service"
	"github.com/chaos-io/cutout/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background removal HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Listen address (overrides server.port)")
	serveCmd.Flags().Bool("warmup", false, "Load the default model before accepting requests")
	rootCmd.AddCommand(serveCmd)
}

func newResultCache(ctx context.Context) service.ResultCache {
	if !cfg.Redis.Enabled {
		return service.NopCache{}
	}

	redisService := service.NewRedisService(&cfg.Redis)
	if err := redisService.Ping(ctx); err != nil {
		util.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		_ = redisService.Close()
		return service.NopCache{}
	}
	util.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
	return redisService
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("warmup") {
		cfg.Model.Warmup, _ = cmd.Flags().GetBool("warmup")
	}

	util.Logger.Info("starting cutout server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("engine", cfg.Model.Engine))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := newResultCache(ctx)
	defer func() {
		_ = cache.Close()
	}()

	store, err := service.NewResultStore(cfg.Storage.ResultDir, cfg.Storage.Retention)
	if err != nil {
		return err
	}
	cleanup, err := store.StartCleanup(cfg.Storage.CleanupSpec)
	if err != nil {
		return err
	}
	defer cleanup.Stop()

	pipeline, sessions, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			util.Logger.Warn("close sessions", zap.Error(err))
		}
	}()

	if cfg.Model.Warmup {
		if _, err := pipeline.Warmup(ctx, cfg.Cutout.Model); err != nil {
			// 预热失败不阻止启动，首个请求会再次尝试加载
			util.Logger.Warn("model warmup failed", zap.Error(err))
		}
	}

	svc := service.NewCutoutService(cfg, pipeline, cache, store)
	h := handler.NewCutoutHandler(svc, cfg.Upload.MaxSize)
	router := handler.NewRouter(cfg.Server.Mode, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}, h)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		util.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		util.Logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
