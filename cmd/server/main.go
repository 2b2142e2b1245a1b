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

	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/config"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/internal/utils"
	"github.com/huangang/taskline/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

const shutdownTimeout = 10 * time.Second

// configFile is the --config flag shared by all subcommands.
var configFile string

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "taskline",
		Short:        "Taskline - project and task management API",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $CONFIG_PATH or config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewIndexesCmd())
	cmd.AddCommand(NewUsersCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

// NewIndexesCmd creates the indexes subcommand.
func NewIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create store indexes and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := st.EnsureIndexes(ctx); err != nil {
				return oops.Code("INDEXES_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
			}
			cmd.Println("Indexes are up to date")
			return nil
		},
	}
}

// NewUsersCmd groups account maintenance commands.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	var active bool
	setActive := &cobra.Command{
		Use:   "set-active <email>",
		Short: "Enable or disable an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if err := services.NewAuthService(st.Users(), 0).SetActive(ctx, args[0], active); err != nil {
				return oops.Code("SET_ACTIVE_FAILED").With("email", args[0]).Wrap(err)
			}
			cmd.Printf("%s is_active=%t\n", args[0], active)
			return nil
		},
	}
	setActive.Flags().BoolVar(&active, "active", true, "whether the account may sign in")
	cmd.AddCommand(setActive)

	return cmd
}

// loadConfig reads and validates the configuration, then initializes the
// process-wide logger and token settings.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger.Init(cfg.Log.Level)
	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetTokenTTL(time.Duration(cfg.JWT.ExpireMinutes) * time.Minute)
	if cfg.JWT.Secret == config.DevelopmentSecret {
		logger.Warn().Msg("Using the development JWT secret; set SECRET_KEY before deploying")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.shutdown()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	registerRoutes(r, svc)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("version", version).Msg("Server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_FAILED").With("addr", addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
