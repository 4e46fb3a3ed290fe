package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/kdapps/internal/apps"
)

// newRenderCommand creates the "render" subcommand that fills a template for one plan.
func newRenderCommand(opts *Options) *cobra.Command {
	var src sourceFlags
	var planIndex int
	var planName string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fill a template for a plan and print the resulting document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			values, err := parseValues(cmd)
			if err != nil {
				return err
			}
			app, err := loadApp(cmd, opts, src)
			if err != nil {
				return err
			}

			index := planIndex
			switch {
			case planName != "":
				if index, err = app.PlanIndex(planName); err != nil {
					return err
				}
			case !cmd.Flags().Changed("plan"):
				if index, err = recommendedPlan(app); err != nil {
					return err
				}
			}

			filled, err := app.FilledTemplateForPlan(index, values)
			if err != nil {
				return err
			}
			ordered, err := app.OrderedYAML(filled)
			if err != nil {
				return err
			}
			var rendered bytes.Buffer
			if err := writeYAML(&rendered, ordered); err != nil {
				return err
			}

			outputDir := cmd.Flag("output").Value.String()
			toStdout, _ := cmd.Flags().GetBool("stdout")

			if outputDir == "" || toStdout {
				_, writeErr := cmd.OutOrStdout().Write(rendered.Bytes())
				return writeErr
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory %q: %w", outputDir, err)
			}

			outPath := filepath.Join(outputDir, fmt.Sprintf("%s-%d.yaml", app.ID, index))
			if err := os.WriteFile(outPath, rendered.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write rendered template to %q: %w", outPath, err)
			}

			logger.Info("rendered template", "path", outPath, "plan", index)
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	addVarsFlags(cmd)
	cmd.Flags().IntVar(&planIndex, "plan", 0, "Plan index (default: the recommended plan)")
	cmd.Flags().StringVar(&planName, "plan-name", "", "Plan name")
	cmd.Flags().StringP("output", "o", "", "Output directory for the rendered document (if empty, prints to stdout)")
	cmd.Flags().Bool("stdout", false, "Force output to stdout instead of files")
	cmd.MarkFlagsMutuallyExclusive("plan", "plan-name")

	return cmd
}

// recommendedPlan returns the index of the recommended plan, or 0 when none is marked.
func recommendedPlan(app *apps.App) (int, error) {
	list, err := app.Plans()
	if err != nil {
		return 0, err
	}
	for i, p := range list {
		if p.Recommended {
			return i, nil
		}
	}
	return 0, nil
}
