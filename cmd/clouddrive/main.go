package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/clouddrive/internal/app"
	"github.com/dropDatabas3/clouddrive/internal/config"
	pgnodes "github.com/dropDatabas3/clouddrive/internal/nodes/pg"
	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
	"github.com/dropDatabas3/clouddrive/internal/security/secretbox"
	"github.com/dropDatabas3/clouddrive/internal/store"
)

func main() {
	var (
		cfgPath = envOr("CLOUDDRIVE_CONFIG", "")
		envFile = ".env"
	)

	root := &cobra.Command{
		Use:           "clouddrive",
		Short:         "Servicio de conexión de drives CMIS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", cfgPath, "Archivo YAML de configuración (env CLOUDDRIVE_CONFIG)")
	root.PersistentFlags().StringVar(&envFile, "env-file", envFile, "Archivo .env a cargar si existe")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Imprime los tipos de nodo en YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := nodetypes.Export()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones del store de nodos en Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual %q)", cfg.Storage.Driver)
			}
			pool, err := store.OpenPool(cmd.Context(), store.PoolConfig{DSN: cfg.Storage.DSN})
			if err != nil {
				return err
			}
			defer pool.Close()
			res, err := pgnodes.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied=%v skipped=%v duration=%s\n", res.Applied, res.Skipped, res.Duration)
			return nil
		},
	}

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera una clave para " + secretbox.EnvVar,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", secretbox.EnvVar, k)
			return nil
		},
	}

	root.AddCommand(serveCmd, schemaCmd, migrateCmd, keygenCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: cfg.App.Name})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	a, err := app.New(ctx, cfg, app.Deps{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Handler,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr), logger.String("version", app.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
