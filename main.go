package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wayfarer/config"
	"wayfarer/db"
)

var (
	configPath string
	debug      bool
	storeKind  string
)

var rootCmd = &cobra.Command{
	Use:   "wayfarer",
	Short: "AI trip planning backend",
	Long: `wayfarer plans day-by-day travel itineraries with a generative model,
refines them from free-text requests and stores them for guests and
signed-in users.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "mongo", "Storage backend: mongo or memory")

	rootCmd.AddCommand(serveCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.Store, func(context.Context) error, error) {
	opts := []db.Option{db.WithSessionTTL(cfg.Planning.SessionTTL)}
	switch storeKind {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		return db.NewMemoryStore(opts...), func(context.Context) error { return nil }, nil
	case "mongo":
		client, err := db.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		store := db.NewMongoStore(client, cfg.Mongo.Database, opts...)
		ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := db.EnsureIndexes(ictx, store.Collections()); err != nil {
			_ = store.Close(context.Background())
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q, want mongo or memory", storeKind)
	}
}
