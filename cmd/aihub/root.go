package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/aihub/internal/config"
	"github.com/pders01/aihub/internal/debuglog"
	"github.com/pders01/aihub/internal/media"
	"github.com/pders01/aihub/internal/tui"
	"github.com/pders01/aihub/internal/validation"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

var (
	cfgFile string
	dbPath  string
	baseURL string
	debug   bool
	quiet   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aihub",
	Short: "Browse the AI Tool Hub from the terminal",
	Long: `aihub browses the AI Tool Hub catalog of tools, documents, news and
podcasts. Without a subcommand it opens the interactive browser.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = debuglog.Close()
	},
	RunE: runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.config/aihub/config.toml)")
	pf.StringVar(&dbPath, "db", "", "database file, overrides database.path")
	pf.StringVar(&baseURL, "base-url", "", "API root, overrides api.base_url")
	pf.BoolVar(&debug, "debug", false, "write debug logs to log.path")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the startup banner")

	rootCmd.AddCommand(
		loginCmd, logoutCmd, whoamiCmd,
		listCmd, showCmd, likeCmd, likedCmd, tagsCmd, searchCmd,
		commentsCmd, commentCmd,
		configCmd, mockServerCmd, versionCmd,
	)
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfig] != "" {
			return nil
		}
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Database.Path = dbPath
	}
	if baseURL != "" {
		if err := validation.ValidateBaseURL(baseURL); err != nil {
			return fmt.Errorf("--base-url: %w", err)
		}
		c.API.BaseURL = baseURL
	}

	level := debuglog.ParseLogLevel(c.Log.Level)
	if debug {
		level = debuglog.LevelDebug
	}
	if err := debuglog.Setup(level, c.Log.Path); err != nil {
		return fmt.Errorf("setting up log: %w", err)
	}
	debuglog.Debugf("config loaded, api %s", c.API.BaseURL)

	cfg = c
	return nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	env, err := openEnv(true)
	if err != nil {
		return err
	}
	defer env.Close()

	app := tui.NewApp(tui.Deps{
		Config:   cfg,
		Hub:      env.hub,
		Auth:     env.client,
		Tags:     env.client,
		Searcher: env.index,
		Opener:   newLauncher(),
		Renderer: newRenderer(""),
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

func newLauncher() *media.Launcher {
	var opts []media.Option
	if validation.IsLocalBackend(cfg.API.BaseURL) {
		opts = append(opts, media.WithLocalLinks())
	}
	return media.NewLauncher(cfg.Media, opts...)
}
