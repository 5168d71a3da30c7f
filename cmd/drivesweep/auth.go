package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vfa-khuongdv/drivesweep"
	"github.com/vfa-khuongdv/drivesweep/pkg/gdrive"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize drivesweep against a Google account",
		Long: `Start the installed-app consent flow. The consent URL is printed and a
local listener on the configured redirect address receives the code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(func(m *drivesweep.Manager) error {
				err := m.Authorize(cmd.Context(), func(authURL string) {
					fmt.Fprintf(os.Stderr, "Open the following URL in your browser to authorize drivesweep:\n\n%s\n\n", authURL)
				})
				if err != nil {
					return err
				}

				identity, err := m.TriggerAuth(cmd.Context())
				if err != nil {
					return fmt.Errorf("authorized, but failed to verify account: %w", err)
				}

				statusf("Authorized as %s\n", describeIdentity(identity))
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authorized Google account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(func(m *drivesweep.Manager) error {
				identity, err := m.TriggerAuth(cmd.Context())
				if err != nil {
					return err
				}

				if flagJSON {
					return printJSON(os.Stdout, identity)
				}
				fmt.Println(describeIdentity(identity))
				return nil
			})
		},
	}
}

func describeIdentity(identity *gdrive.Identity) string {
	if identity.EmailAddress == "" {
		return identity.DisplayName
	}
	return fmt.Sprintf("%s <%s>", identity.DisplayName, identity.EmailAddress)
}
