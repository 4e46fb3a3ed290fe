package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newValidateCommand creates the "validate" subcommand.
func newValidateCommand(opts *Options) *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check template syntax, fields and plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			app, err := loadApp(cmd, opts, src)
			if err != nil {
				return err
			}
			if err := app.Validate(); err != nil {
				logger.Warn("template is invalid", "app", app.ID, "error", err)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "template %q is valid\n", app.ID)
			return err
		},
	}

	addSourceFlags(cmd, &src)
	return cmd
}
