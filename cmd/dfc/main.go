package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"dfc-go/internal/app"
	"dfc-go/internal/config"
	"dfc-go/internal/dfc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DFCApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "ls", "cp").
func newApp(cmd *cobra.Command, operation string) (*app.DFCApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewDFCApp(cmd.Context(), cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "dfc",
	Short: "Browse and manage documents behind content URIs and paths",
	Long: `dfc resolves content:// URIs (tree or single document), file:// URIs and
plain paths into documents, and lists, creates, renames, deletes and copies them.`,
	SilenceUsage: true,
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

		baseDir := defaults["base_dir"]
		cfg := config.NewConfig(baseDir)

		docsDir := filepath.Join(baseDir, "documents")
		if err := os.MkdirAll(docsDir, 0755); err != nil {
			return fmt.Errorf("creating documents directory: %w", err)
		}
		cfg.Providers = []config.ProviderConfig{
			{Type: "local", Authority: "dfc.local", LocalRoot: docsDir},
			{Type: "sqlite", Authority: "dfc.db", SQLitePath: filepath.Join(baseDir, "documents.db")},
		}
		cfg.Grants = []config.GrantConfig{
			{URI: dfc.BuildTreeDocumentURI("dfc.local", "root:").String(), Mode: "rw"},
			{URI: dfc.BuildTreeDocumentURI("dfc.db", "root").String(), Mode: "rw"},
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", baseDir)
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
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Concurrency: %d\n", cfg.Generator.Concurrency)
		fmt.Println("\nProviders:")
		for _, p := range cfg.Providers {
			fmt.Printf("  %-8s %s\n", p.Type, p.Authority)
		}
		fmt.Println("\nGrants:")
		for _, g := range cfg.Grants {
			fmt.Printf("  %-3s %s\n", g.Mode, g.URI)
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [location]",
	Short: "List a directory, or the configured roots when no location is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		columns, _ := cmd.Flags().GetStringSlice("columns")
		asJSON, _ := cmd.Flags().GetBool("json")
		pattern, _ := cmd.Flags().GetString("match")

		a, err := newApp(cmd, "ls")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			for _, r := range a.Roots() {
				fmt.Printf("%s\t%s\n", r.Authority, r.TreeURI)
			}
			return nil
		}

		files, err := a.List(cmd.Context(), args[0], columns)
		if err != nil {
			return err
		}
		files, err = filterByName(files, pattern)
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(os.Stdout, files)
		}
		return writeListing(os.Stdout, files, isTerminal(os.Stdout))
	},
}

var countCmd = &cobra.Command{
	Use:   "count <location>",
	Short: "Count the children of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "count")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Count(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <location>",
	Short: "Show a document's metadata and checks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd, "stat")
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.Stat(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(os.Stdout, info)
		}

		fmt.Printf("URI:       %s\n", info.URI)
		fmt.Printf("Name:      %s\n", info.Name)
		fmt.Printf("Type:      %s\n", formatType(info.SerializedFile))
		fmt.Printf("Size:      %d\n", info.Length)
		fmt.Printf("Modified:  %s\n", formatModified(info.LastModified))
		fmt.Printf("Flags:     %s (%d)\n", flagLetters(info.Flags), info.Flags)
		fmt.Printf("Directory: %t\n", info.IsDirectory)
		fmt.Printf("File:      %t\n", info.IsFile)
		fmt.Printf("Virtual:   %t\n", info.IsVirtual)
		fmt.Printf("Readable:  %t\n", info.CanRead)
		fmt.Printf("Writable:  %t\n", info.CanWrite)
		fmt.Printf("Exists:    %t\n", info.Exists)
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <parent> <name>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "mkdir")
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.MakeDirectory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(created.URI)
		return nil
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch <parent> <name>",
	Short: "Create an empty file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mimeType, _ := cmd.Flags().GetString("mime")

		a, err := newApp(cmd, "touch")
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.Touch(cmd.Context(), args[0], mimeType, args[1])
		if err != nil {
			return err
		}
		fmt.Println(created.URI)
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <location> <new-name>",
	Short: "Rename a document in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "mv")
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Rename(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <location>",
	Short: "Delete a document, recursively for directories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "rm")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Remove(cmd.Context(), args[0])
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <source> <destination>",
	Short: "Copy a document's bytes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "cp")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Copy(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Copied %s to %s\n", args[0], args[1])
		return nil
	},
}

var genCmd = &cobra.Command{
	Use:   "gen <directory>",
	Short: "Generate test files of random size and type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			return fmt.Errorf("count must be positive")
		}

		a, err := newApp(cmd, "gen")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Generate(cmd.Context(), args[0], count)
		if report != nil {
			fmt.Println(report)
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().StringSlice("columns", nil, "Columns to query (default all)")
	lsCmd.Flags().Bool("json", false, "Print JSON")
	lsCmd.Flags().StringP("match", "m", "", "Only show names matching this glob")

	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(statCmd)
	statCmd.Flags().Bool("json", false, "Print JSON")

	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(touchCmd)
	touchCmd.Flags().String("mime", "", "Mime type (default guessed from the name)")

	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(cpCmd)

	rootCmd.AddCommand(genCmd)
	genCmd.Flags().IntP("count", "n", 100, "Number of files to generate")
}
