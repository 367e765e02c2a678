package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/window-opener/internal/service"
)

func newServiceCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the systemd user service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !service.Available() {
				return service.ErrUnavailable
			}
			return nil
		},
	}

	manager := func() (*service.Manager, error) {
		return service.NewManager("", nil)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install, enable and start the user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			if err := m.Install(cmd.Context(), service.GetDefaultConfig(*configPath)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "window-opener service installed")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			return m.Uninstall(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the user service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			status, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restart",
		Short: "Restart the user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			return m.Restart(cmd.Context())
		},
	})

	return cmd
}
