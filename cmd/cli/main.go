package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/pkgsync-go/internal/app"
	"github.com/yourusername/pkgsync-go/internal/domain"
	"github.com/yourusername/pkgsync-go/internal/infrastructure"
	"github.com/yourusername/pkgsync-go/pkg/logger"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "pkgsync",
		Short: "pkgsync CLI - Synchronize package metadata repositories",
		Long:  `A command-line interface for synchronizing package metadata from remote repositories into the local registry.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(packagesCmd)
	rootCmd.AddCommand(reposCmd)
}

// setup loads the configuration and opens the registry
func setup() (*domain.Config, *infrastructure.SQLiteRegistry) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(config.Registry.DatabasePath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	registry, err := infrastructure.NewSQLiteRegistry(config.Registry.DatabasePath, config.Repositories)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return config, registry
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize all configured repositories",
	Run: func(cmd *cobra.Command, args []string) {
		config, registry := setup()
		defer registry.Close()

		log, err := logger.New(logger.Config{
			Level:      config.Logging.Level,
			Format:     config.Logging.Format,
			OutputPath: config.Logging.OutputPath,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()

		engine := infrastructure.NewHTTPTransferEngine(config.Transfer.Timeout, config.Transfer.TempDir, log)
		probe := infrastructure.NewHTTPTokenProbe(config.Transfer.Timeout)
		reporter := infrastructure.NewLogReporter(log)
		syncMgr := app.NewSyncManager(registry, engine, probe, reporter, log)

		outcome, err := syncMgr.SyncAll(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
			os.Exit(1)
		}

		switch outcome {
		case domain.OutcomeUpdated:
			fmt.Println("Registry updated")
		case domain.OutcomeNoChanges:
			fmt.Println("All repositories up to date")
		}
	},
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List available packages in the registry",
	Run: func(cmd *cobra.Command, args []string) {
		_, registry := setup()
		defer registry.Close()

		descriptors, err := registry.Available()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IDENTIFIER\tVERSION\tNAME\tDOWNLOADS")
		for _, d := range descriptors {
			count, _ := registry.DownloadCount(d.Identifier)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", d.Identifier, d.Version, truncate(d.Name, 40), count)
		}
		w.Flush()
	},
}

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List configured repositories",
	Run: func(cmd *cobra.Command, args []string) {
		_, registry := setup()
		defer registry.Close()

		repos, err := registry.Repositories()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURI\tETAG")
		for _, r := range repos {
			etag := r.LastETag
			if etag == "" {
				etag = "(never synced)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.URI, etag)
		}
		w.Flush()
	},
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
