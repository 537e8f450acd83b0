package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"photodex/internal/app"
	"photodex/internal/config"
	"photodex/internal/database"
	"photodex/internal/photo"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PhotodexApp. The caller must defer
// app.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.PhotodexApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewPhotodexApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "photodex",
	Short: "Photo indexing and geolocation tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Language: %s\n", cfg.Language)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Language:  %s\n", cfg.Language)
		fmt.Printf("Database:  %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Extractor: %s\n", cfg.Extractor.Type)
		return nil
	},
}

// index command
var indexCmd = &cobra.Command{
	Use:   "index [PATH]",
	Short: "Index photos in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("index")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		tree, err := a.IndexDirectory(cmd.Context(), target, recursive)
		if err != nil {
			return fmt.Errorf("indexing: %w", err)
		}

		printTree(tree)
		return nil
	},
}

func printTree(tree *photo.Tree) {
	total := 0
	for _, node := range tree.FlatNodes() {
		indent := ""
		for i := 0; i < node.Level; i++ {
			indent += "  "
		}
		fmt.Printf("%s%s  (%d photo(s))\n", indent, node.Name, len(node.Items))
		total += len(node.Items)

		for _, e := range node.Errs {
			fmt.Printf("%s  ! %v\n", indent, e)
		}
	}
	fmt.Printf("\nIndexed %d photo(s) in %d directory(ies)\n", total, tree.NodeCount())
}

// resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [PATH]",
	Short: "Resolve place names for photos with GPS coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")
		language, _ := cmd.Flags().GetString("language")

		a, err := newApp("resolve")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		tree, resolutions, err := a.ResolveLocations(cmd.Context(), target, recursive, language)
		if err != nil {
			return fmt.Errorf("resolving: %w", err)
		}

		if len(resolutions) == 0 {
			fmt.Println("No photos with GPS coordinates found.")
			return nil
		}

		for _, node := range tree.FlatNodes() {
			for _, p := range node.Items {
				res, ok := resolutions[p.Path]
				if !ok {
					continue
				}
				name := filepath.Base(p.Path)
				switch res.State {
				case photo.StateResolved:
					cached := ""
					if res.FromCache {
						cached = "  [cached]"
					}
					fmt.Printf("%-40s  %s%s\n", name, res.PlaceName, cached)
				case photo.StateErrored:
					fmt.Printf("%-40s  error: %s\n", name, res.Message)
				}
			}
		}
		return nil
	},
}

// rename command
var renameCmd = &cobra.Command{
	Use:   "rename [PATH]",
	Short: "Rename labeled photos to their labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		addPrefix, _ := cmd.Flags().GetBool("prefix")

		a, err := newApp("rename")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		result, err := a.RenameFiles(cmd.Context(), target, addPrefix)
		if err != nil {
			return fmt.Errorf("renaming: %w", err)
		}

		fmt.Printf("Renamed %d of %d file(s)\n", result.FilesRenamed, result.TotalFiles)
		for _, e := range result.Errors {
			fmt.Printf("! %s\n", e)
		}
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show FILENAME",
	Short: "Print a photo as an embeddable data URI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("show")
		if err != nil {
			return err
		}
		defer a.Close()

		src, err := a.ImageSrc(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("rendering image: %w", err)
		}

		fmt.Println(src)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the catalog database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		if cfg.Database.Type == "memory" {
			return fmt.Errorf("in-memory databases are migrated automatically")
		}

		if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		db, err := database.NewSQLiteDatabase(filepath.Join(cfg.Database.DataDir, "photodex.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := db.MigrateUp(); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		fmt.Println("Database schema is up to date.")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	resolveCmd.Flags().StringP("language", "l", "", "Display language for place names")
	rootCmd.AddCommand(renameCmd)
	renameCmd.Flags().BoolP("prefix", "p", false, "Prefix filenames with a chronological ordinal")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dbCmd)
}
