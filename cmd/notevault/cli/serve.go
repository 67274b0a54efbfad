package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notevault/notevault/internal/secret"
	"github.com/notevault/notevault/internal/server"
	"github.com/notevault/notevault/internal/service"
	"github.com/notevault/notevault/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notevault API server",
		Long:  "Start the HTTP server that exposes the note and API key endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	logLevel := slog.LevelInfo
	if dev || viper.GetString("logging.level") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized")

	hasher := secret.New(viper.GetInt("auth.bcrypt_cost"))
	authSvc := service.NewAuthService(st, hasher)

	cfg := server.DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	if origins := viper.GetStringSlice("server.cors_origins"); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	if rate := viper.GetInt("server.issue_rate_per_minute"); rate > 0 {
		cfg.IssueRateLimit = rate
	}
	if rate := viper.GetInt("server.key_rate_per_minute"); rate > 0 {
		cfg.KeyRateLimit = rate
	}
	if timeout := viper.GetString("server.shutdown_timeout"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	srv := server.New(cfg, st, authSvc, logger)
	return srv.ListenAndServe()
}

// openStore connects to the database named by the single connection-string
// setting (NOTEVAULT_DATABASE_URL or database.url). An empty value opens an
// in-memory SQLite database, which loses all data on exit.
func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("database.url"))
}
