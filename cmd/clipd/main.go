package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipd/clipd/internal/config"
	"github.com/clipd/clipd/internal/store"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "clipd",
		Short: "A local clipboard history manager",
		Long: "clipd captures clipboard content into a local history that can be\n" +
			"listed, searched, tagged, pinned, and pruned.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation shows the ten most recent entries.
			return runList(listOptions{limit: 10})
		},
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(
		newListCommand(),
		newSearchCommand(),
		newGetCommand(),
		newCopyCommand(),
		newDeleteCommand(),
		newPinCommand(),
		newTagCommand(),
		newClearCommand(),
		newStatsCommand(),
		newDaemonCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("base-dir", defaults.GetString("base.dir"), "Data directory (default ~/.clipd)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "Clip database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "base.dir", "base-dir")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	return viper.ReadInConfig()
}

func loadConfig() (config.AppConfig, error) {
	return config.Load(viper.GetViper())
}

// openStore prepares the data directory and opens the clip database. The
// returned closer releases the underlying connection.
func openStore(cfg config.AppConfig) (*store.Store, func(), error) {
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := store.Open(cfg.DatabasePath, nil)
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	storage, err := store.New(store.Config{Database: db})
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return storage, closeDB, nil
}
