package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/window-opener/internal/config"
	"github.com/pandeptwidyaop/window-opener/internal/version"
)

type flags struct {
	config   string
	programs string
	secrets  string
	port     int
	listen   string
	debug    bool
	lowlevel string
	program  string
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:     "window-opener",
		Short:   "REST daemon that opens, focuses and closes desktop applications",
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return fmt.Errorf("load %s: %w", f.config, err)
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.config, "config", "window-opener.yml", "Daemon settings file")

	fl := rootCmd.Flags()
	fl.StringVar(&f.programs, "programs", "", "Programs file (default from settings, config.yml)")
	fl.StringVar(&f.secrets, "secrets", "", "Secrets file (default from settings, secrets.yml)")
	fl.IntVar(&f.port, "port", 8080, "Port to listen on")
	fl.StringVar(&f.listen, "listen", "0.0.0.0", "Address to listen on")
	fl.BoolVar(&f.debug, "debug", false, "Enable loads more logging")
	fl.StringVar(&f.lowlevel, "lowlevel", "yes", "Enable lowlevel REST API (yes|no)")
	fl.StringVar(&f.program, "program", "yes", "Enable program REST API (yes|no)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServiceCmd(&f.config))

	return rootCmd
}

// apply lets explicitly given flags override the settings file.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("programs") {
		cfg.Files.Programs = f.programs
	}
	if changed("secrets") {
		cfg.Files.Secrets = f.secrets
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("listen") {
		cfg.Server.Listen = f.listen
	}
	if f.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if changed("lowlevel") {
		on, err := yesNo("lowlevel", f.lowlevel)
		if err != nil {
			return err
		}
		cfg.API.LowLevel = &on
	}
	if changed("program") {
		on, err := yesNo("program", f.program)
		if err != nil {
			return err
		}
		cfg.API.Program = &on
	}
	return nil
}

func yesNo(name, v string) (bool, error) {
	switch v {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("--%s must be yes or no, got %q", name, v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "window-opener %s\n", version.Version)
			fmt.Fprintf(out, "Build Time: %s\n", version.BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", version.GitCommit)
		},
	}
}
