package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cosmo_command/internal/config"
	"cosmo_command/internal/graph"
	"cosmo_command/internal/session"
	"cosmo_command/internal/tui"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "cosmo_command",
		Short:   "Live dependency graph of an agent runtime's sessions",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: standard search path)")

	// The dashboard is the default command
	tuiOpts := &tuiOptions{}
	rootCmd.RunE = tuiOpts.run
	tuiOpts.addFlags(rootCmd)

	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(snapshotCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config from --config or the standard search path and
// installs it as the global config
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromDefaultPath()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// startWatcher watches the sessions directory, returning nil when that is not
// possible; callers then rely on polling alone
func startWatcher(cfg *config.Config) *session.Watcher {
	w, err := session.NewWatcher(cfg.SessionsPath(), cfg.RegistryFile)
	if err != nil {
		log.Printf("watcher: %v (polling only)", err)
		return nil
	}
	if err := w.Start(); err != nil {
		log.Printf("watcher: %v (polling only)", err)
		_ = w.Stop()
		return nil
	}
	return w
}

type tuiOptions struct {
	remote  string
	logFile string
}

func (o *tuiOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.remote, "remote", "r", "", "subscribe to a running server (e.g. ws://127.0.0.1:3458/ws)")
	cmd.Flags().StringVar(&o.logFile, "log", "", "write logs to this file")
}

func tuiCmd() *cobra.Command {
	opts := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE:  opts.run,
	}
	opts.addFlags(cmd)
	return cmd
}

func (o *tuiOptions) run(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the dashboard, so logs go to a file or nowhere
	if o.logFile != "" {
		f, err := tea.LogToFile(o.logFile, "cosmo")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tui.SetTheme(cfg.Theme)

	var src tui.Source
	if o.remote != "" {
		src = tui.NewRemoteSource(o.remote, nil)
	} else {
		asm := graph.NewAssembler(graph.OptionsFromConfig(cfg))
		src = tui.NewLocalSource(asm, startWatcher(cfg), cfg.Server.PollInterval, nil)
	}
	defer src.Close()

	model := tui.NewModel(tui.ModelOptions{
		Source:    src,
		AgentName: cfg.AgentName,
		Liveness:  cfg.Liveness,
		ToolColor: cfg.ToolColor,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
