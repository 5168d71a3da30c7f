package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vfa-khuongdv/drivesweep"
	"github.com/vfa-khuongdv/drivesweep/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagQuiet      bool
)

// resolvedCfg holds the configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Config

// newManager builds the manager used by a command.
var newManager = func(cfg *config.Config) (*drivesweep.Manager, error) {
	return drivesweep.NewManager(drivesweep.ConfigFromFile(cfg))
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "drivesweep",
		Short:         "Google Drive sharing auditor",
		Long:          "List Drive folders, report public links and revoke stale sharing grants.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}
			resolvedCfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default "+config.DefaultConfigPath()+")")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress status messages")

	cmd.AddCommand(
		newAuthCmd(),
		newWhoamiCmd(),
		newLsCmd(),
		newShareCmd(),
		newSweepCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)

	return cmd
}

// withManager opens a manager for the duration of fn.
func withManager(fn func(m *drivesweep.Manager) error) error {
	if resolvedCfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	m, err := newManager(resolvedCfg)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}
