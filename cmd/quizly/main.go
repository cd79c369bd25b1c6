// Package main provides the CLI entrypoint for quizly.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/quizly/internal/bank"
	"github.com/verte-zerg/quizly/internal/config"
	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/selector"
	"github.com/verte-zerg/quizly/internal/session"
	"github.com/verte-zerg/quizly/internal/stats"
	"github.com/verte-zerg/quizly/internal/statsui"
	"github.com/verte-zerg/quizly/internal/store"
)

const (
	backendCSV    = "csv"
	backendSQLite = "sqlite"

	defaultBackend = backendCSV
)

var (
	dataDir        string
	storageBackend string
	profileName    string
	verbose        bool

	minQuestions int
	choices      int
	seed         int64

	statsOrder string
	statsPlain bool

	exportOut string

	logger = slog.Default()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "quizly",
		Short:             "Terminal quiz with adaptive practice",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: loadSettings,
		RunE:              runSessionCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", config.DefaultDataDir(), "directory holding questions and statistics")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "backend", defaultBackend, "storage backend: csv or sqlite")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", model.DefaultProfileName, "profile to start with")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVar(&minQuestions, "min-questions", session.DefaultMinQuestions, "questions required before practice or test")
	rootCmd.Flags().IntVar(&choices, "choices", session.DefaultChoices, "distractors collected for a new quiz question")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

// loadSettings layers flags over environment over the config file.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env", filepath.Join(config.XDGConfigHome(), "quizly", ".env")); err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg, err = config.ApplyEnv(fileCfg)
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	applyStringConfig(cmd, "data-dir", &dataDir, fileCfg.Storage.DataDir)
	applyStringConfig(cmd, "backend", &storageBackend, fileCfg.Storage.Backend)
	applyStringConfig(cmd, "profile", &profileName, fileCfg.Quiz.Profile)
	applyIntConfig(cmd, "min-questions", &minQuestions, fileCfg.Quiz.MinQuestions)
	applyIntConfig(cmd, "choices", &choices, fileCfg.Quiz.Choices)
	applyInt64Config(cmd, "seed", &seed, fileCfg.Quiz.Seed)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return validateSettings()
}

func validateSettings() error {
	storageBackend = strings.ToLower(strings.TrimSpace(storageBackend))
	if storageBackend != backendCSV && storageBackend != backendSQLite {
		return fmt.Errorf("--backend must be %q or %q", backendCSV, backendSQLite)
	}
	if strings.TrimSpace(dataDir) == "" {
		return fmt.Errorf("--data-dir must not be empty")
	}
	profileName = strings.TrimSpace(profileName)
	if profileName == "" {
		return fmt.Errorf("--profile must not be empty")
	}
	if minQuestions < 1 {
		return fmt.Errorf("--min-questions must be >= 1")
	}
	if choices < 1 || choices > model.MaxChoices {
		return fmt.Errorf("--choices must be between 1 and %d", model.MaxChoices)
	}
	return nil
}

func openStore() (session.Store, error) {
	switch storageBackend {
	case backendSQLite:
		st, err := store.OpenSQLite(config.DBPath(dataDir), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, nil
	default:
		st, err := store.OpenCSV(store.DefaultCSVPaths(dataDir), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open csv store: %w", err)
		}
		return st, nil
	}
}

// terminalWidth returns the stdout width, or zero when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func closeStore(st session.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close store: %v\n", err)
	}
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := session.New(st, session.Options{
		ProfileName:  profileName,
		MinQuestions: minQuestions,
		Choices:      choices,
		Width:        terminalWidth(),
		In:           cmd.InOrStdin(),
		Out:          cmd.OutOrStdout(),
		Selector:     selector.New(seed),
		Logger:       logger,
	})
	return ctrl.Run(ctx)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show question statistics for a profile",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsOrder, "order", "ascending", "sort by score: ascending or descending")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain table instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	order, err := stats.ParseOrder(statsOrder)
	if err != nil {
		return fmt.Errorf("invalid --order value: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return printStats(cmd.Context(), cmd.OutOrStdout(), st, order)
	}

	ui := statsui.NewModel(st, statsui.Options{Profile: profileName, Order: order})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printStats(ctx context.Context, w io.Writer, src stats.Source, order stats.Order) error {
	report, err := stats.BuildReport(ctx, src, profileName, order)
	if err != nil {
		return fmt.Errorf("failed to build stats: %w", err)
	}
	if _, err := fmt.Fprintf(w, "Profile: %s (id %d)\n\n", report.Profile.Name, report.Profile.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderQuestionTable(w, report.Rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSummary(w, report.Summary); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE:  runProfilesCmd,
	}
}

func runProfilesCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	profiles, err := st.ListProfiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if err := stats.RenderProfiles(cmd.OutOrStdout(), profiles); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Append questions from a YAML bank",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	f, err := bank.Load(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	questions, err := st.LoadQuestions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	questions, added := f.Append(questions)
	if err := st.SaveQuestions(ctx, questions); err != nil {
		return fmt.Errorf("failed to save questions: %w", err)
	}
	logErrf("Imported %d question(s) from %s\n", added, args[0])
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the question bank as YAML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	questions, err := st.LoadQuestions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if exportOut == "" {
		return bank.Write(cmd.OutOrStdout(), bank.FromQuestions(questions))
	}
	return writeBankFile(exportOut, bank.FromQuestions(questions))
}

func writeBankFile(path string, f bank.File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "bank-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp bank: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := bank.Write(tmpFile, f); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close bank: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write bank: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

// flagChanged also reports false for root-only flags looked up from a subcommand.
func flagChanged(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# quizly configuration
# Uncomment a value to enable it. Environment variables (%s, %s,
# %s, %s) override the file; CLI flags override both.

[storage]
# backend = %q           # csv or sqlite
# data-dir = %q

[quiz]
# profile = %q           # Profile to start with
# min-questions = %d       # Questions required before practice or test
# choices = %d             # Distractors collected for a new quiz question
# seed = 0                # Random seed (0 uses the clock)
`,
		config.EnvBackend,
		config.EnvDataDir,
		config.EnvProfile,
		config.EnvMinQuestions,
		defaultBackend,
		config.DefaultDataDir(),
		model.DefaultProfileName,
		session.DefaultMinQuestions,
		session.DefaultChoices,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
