package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/config"
	"github.com/abhisek/genlearn/internal/logger"
	"github.com/abhisek/genlearn/internal/store"
)

var (
	cfg    *config.Config
	appLog *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "genlearn",
	Short: "Learn generative AI by doing",
	Long: "genlearn - a catalog of generative-AI lessons, labs and quizzes with progress tracking,\n" +
		"served as a JSON API (genlearn serve) or used directly from the terminal.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		l, err := logger.New(cfg.Env)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		appLog = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLog != nil {
			appLog.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./config/genlearn.yaml or ./genlearn.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides store.path and GENLEARN_DB)")
	rootCmd.PersistentFlags().String("device", "", "Device id for anonymous progress (default: storage.device_id)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token; progress is stored for the token's user")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(labCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then store.path from config, then GENLEARN_DB or the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}
