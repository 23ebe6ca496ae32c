package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"cpindex/internal/app"
	"cpindex/internal/auth"
	"cpindex/internal/catalog"
	"cpindex/internal/config"
	"cpindex/internal/indexer"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
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

// newApp reads the config and creates a CPIndexApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Search", "AdminBackup").
func newApp(cmd *cobra.Command, operation string) (*app.CPIndexApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	opts := app.Options{Verbose: verbose}
	if verbose {
		opts.Stderr = os.Stderr
	}

	a, err := app.NewCPIndexApp(cmd.Context(), cfg, operation, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a fresh app and marks the operation failed when
// fn returns an error.
func withApp(cmd *cobra.Command, operation string, fn func(a *app.CPIndexApp) error) error {
	a, err := newApp(cmd, operation)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(a); err != nil {
		a.Operation().Fail()
		return err
	}
	return nil
}

// currentActor resolves --as, prompting for a password when the config
// lists users. CPINDEX_PASSWORD skips the prompt.
func currentActor(cmd *cobra.Command, a *app.CPIndexApp) (indexer.Actor, error) {
	email, _ := cmd.Flags().GetString("as")
	var password string
	if a.RequiresPassword() && email != "" {
		password = os.Getenv("CPINDEX_PASSWORD")
		if password == "" {
			var err error
			if password, err = readSecret(fmt.Sprintf("Password for %s: ", email)); err != nil {
				return indexer.Actor{}, err
			}
		}
	}
	return a.Actor(email, password)
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// readNewSecret prompts twice and requires both entries to match.
func readNewSecret(what string) (string, error) {
	first, err := readSecret(fmt.Sprintf("New %s: ", what))
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", fmt.Errorf("%s must not be empty", what)
	}
	second, err := readSecret(fmt.Sprintf("Repeat %s: ", what))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("%s entries do not match", what)
	}
	return first, nil
}

// confirm asks a yes/no question on stdin. Only "s", "sim", "y" and "yes"
// count as yes.
func confirm(in io.Reader, question string) bool {
	fmt.Printf("%s [s/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

func printTable(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

var rootCmd = &cobra.Command{
	Use:          "cpindex",
	Short:        "Parish register index",
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
		useAge, _ := cmd.Flags().GetBool("age")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])
		if useAge {
			cfg.Encryption.Type = "age"
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])

		if useAge {
			passphrase, err := readNewSecret("backup key passphrase")
			if err != nil {
				return err
			}
			if err := app.SetupEncryption(cfg, passphrase); err != nil {
				return fmt.Errorf("setting up encryption: %w", err)
			}
			fmt.Printf("Backup key:  %s\n", cfg.Encryption.PublicKeyPath)
		}
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
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s\n", cfg.Database.Type)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Printf("Timezone:    %s\n", cfg.DisplayTimezone)
		fmt.Printf("Export:      %s\n", strings.Join(cfg.Export.Formats, ", "))
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		fmt.Printf("Users:       %d\n", len(cfg.Users))
		fmt.Printf("Admins:      %s\n", strings.Join(cfg.Admins, ", "))
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the records database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// fields command
var fieldsCmd = &cobra.Command{
	Use:   "fields [TYPE]",
	Short: "List record types, or the fields of one type",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, t := range catalog.Types() {
				fmt.Println(t.Name)
			}
			fmt.Println()
			for _, c := range catalog.Categories() {
				fmt.Printf("search category %q: %s\n", c.Name, strings.Join(c.Fields, ", "))
			}
			return nil
		}

		t, ok := catalog.Lookup(args[0])
		if !ok {
			return fmt.Errorf("%w: %q", indexer.ErrUnknownType, args[0])
		}
		var rows [][]string
		for _, label := range catalog.FieldsFor(t.Name) {
			rows = append(rows, []string{catalog.Normalize(label), label})
		}
		if t.Repeatable != nil {
			rows = append(rows, []string{t.Repeatable.Identifier, t.Repeatable.Label + " (--party)"})
		}
		printTable(os.Stdout, []string{"IDENTIFIER", "LABEL"}, rows)
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userHashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for the users section of the config",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readNewSecret("password")
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, "Serve", func(a *app.CPIndexApp) error {
			fmt.Printf("Listening on %s\n", a.Config().Server.Addr)
			return a.Serve(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().String("as", os.Getenv("CPINDEX_USER"), "Email to act as (default $CPINDEX_USER)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("age", false, "Encrypt vault backups with a new age key pair")
	configCmd.AddCommand(configListCmd)

	dbCmd.AddCommand(dbMigrateCmd)
	userCmd.AddCommand(userHashPasswordCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(serveCmd)
}
