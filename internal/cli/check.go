package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/k14s/difflib"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/plans"
)

// newCheckCommand creates the "check" subcommand that tests whether a document was produced by a template.
func newCheckCommand(opts *Options) *cobra.Command {
	var src sourceFlags
	var podFile string
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a pod document was produced by a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, opts, src)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(podFile)
			if err != nil {
				return fmt.Errorf("read document %q: %w", podFile, err)
			}
			var candidate map[string]any
			if err := yaml.Unmarshal(data, &candidate); err != nil {
				return fmt.Errorf("parse document %q: %w", podFile, err)
			}

			if app.IsTemplateFor(candidate) {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s matches template %q\n", podFile, app.ID)
				return err
			}
			if showDiff {
				if err := printDiff(cmd, app.ExpectedFor, candidate); err != nil {
					return err
				}
			}
			return fmt.Errorf("%s was not produced by template %q", podFile, app.ID)
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringVar(&podFile, "pod", "", "Path to a YAML or JSON pod document")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show how the document differs from the template")
	_ = cmd.MarkFlagRequired("pod")
	return cmd
}

func printDiff(cmd *cobra.Command, expectedFor func(map[string]any) (map[string]any, bool), candidate map[string]any) error {
	expected, ok := expectedFor(candidate)
	if !ok {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "document names no plan of this template")
		return err
	}
	if kd, ok := candidate["kuberdock"].(map[string]any); ok {
		delete(kd, plans.TemplateIDKey)
	}
	var want, got bytes.Buffer
	if err := writeYAML(&want, expected); err != nil {
		return err
	}
	if err := writeYAML(&got, candidate); err != nil {
		return err
	}
	diff := difflib.PPDiff(strings.Split(want.String(), "\n"), strings.Split(got.String(), "\n"))
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "diff expected...actual:\n%s\n", diff)
	return err
}
