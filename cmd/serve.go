package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/internal/audit"
	"github.com/jmehdipour/typed-rpc/internal/config"
	"github.com/jmehdipour/typed-rpc/internal/db"
	httpSrv "github.com/jmehdipour/typed-rpc/internal/http"
	"github.com/jmehdipour/typed-rpc/internal/logger"
	"github.com/jmehdipour/typed-rpc/internal/metrics"
	"github.com/jmehdipour/typed-rpc/internal/procedure"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
	"github.com/jmehdipour/typed-rpc/internal/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RPC HTTP server (requires PORT and JWT_SECRET)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		// fail before anything binds or connects
		if err := cfg.RequireServer(); err != nil {
			return err
		}

		if err := logger.Init(cfg.Log.Level, cfg.Log.Encoding); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log := logger.Log
		defer func() { _ = log.Sync() }()

		signer, err := token.NewSigner(cfg.Auth.JWTSecret)
		if err != nil {
			return fmt.Errorf("token signer: %w", err)
		}

		m := metrics.New()
		m.MustRegister(prometheus.DefaultRegisterer)

		deps := httpSrv.Deps{Logger: log, Metrics: m}
		var recorder *audit.Recorder
		regOpts := []rpc.Option{
			rpc.WithAdminCredential(cfg.Auth.AdminCredential),
			rpc.WithObserver(m),
		}

		if cfg.Redis.Addr != "" {
			redisClient, err := db.NewRedisClient(cmd.Context(), db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			deps.Redis = redisClient
		}

		if cfg.ClickHouse.DSN != "" {
			chDB, err := db.NewClickHouseConnection(cmd.Context(), db.ClickHouseOpts{
				DSN:             cfg.ClickHouse.DSN,
				MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
				MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
				ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
				ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
				PingTimeout:     cfg.ClickHouse.PingTimeout,
			})
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer func() { _ = chDB.Close() }()

			calls := audit.NewCHCallsRepository(chDB)
			deps.Calls = calls
			recorder = audit.NewRecorder(calls, log, audit.RecorderOpts{
				BufferSize: cfg.Audit.BufferSize,
				BatchSize:  cfg.Audit.BatchSize,
				BatchWait:  cfg.Audit.BatchWait,
			})
			regOpts = append(regOpts, rpc.WithObserver(recorder))
		}

		reg := rpc.NewRegistry(regOpts...)
		if err := procedure.Register(reg, procedure.Deps{Logger: log, Signer: signer}); err != nil {
			return fmt.Errorf("register procedures: %w", err)
		}
		reg.Seal()
		deps.Registry = reg

		server := httpSrv.NewServer(cfg, deps)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr())
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err = server.Shutdown(ctx)
		if recorder != nil {
			// after the server so in-flight calls are still queued
			if cerr := recorder.Close(ctx); cerr != nil {
				log.Warn("audit flush incomplete",
					zap.Uint64("dropped", recorder.Dropped()),
					zap.Error(cerr),
				)
			}
		}
		return err
	},
}
