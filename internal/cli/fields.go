package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// fieldView is the printable form of a template field.
type fieldView struct {
	Name    string `json:"name" yaml:"name"`
	Label   string `json:"label" yaml:"label"`
	Kind    string `json:"kind" yaml:"kind"`
	Default any    `json:"default" yaml:"default"`
	Hidden  bool   `json:"hidden" yaml:"hidden"`
}

// newFieldsCommand creates the "fields" subcommand that lists declared template fields.
func newFieldsCommand(opts *Options) *cobra.Command {
	var src sourceFlags
	var output string

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List fields declared by a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			app, err := loadApp(cmd, opts, src)
			if err != nil {
				return err
			}
			fields, err := app.Fields()
			if err != nil {
				return err
			}

			views := make([]fieldView, 0, len(fields))
			for _, f := range fields {
				views = append(views, fieldView{
					Name:    f.Name,
					Label:   f.Label,
					Kind:    f.Kind.String(),
					Default: f.DefaultValue(),
					Hidden:  f.Hidden,
				})
			}
			if format != outputTable {
				return writeStructured(cmd.OutOrStdout(), format, views)
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				def := fmt.Sprint(v.Default)
				if v.Hidden {
					def = "(generated)"
				}
				rows = append(rows, []string{v.Name, v.Label, v.Kind, def, strconv.FormatBool(v.Hidden)})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"NAME", "LABEL", "KIND", "DEFAULT", "HIDDEN"}, rows))
			return err
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, json, yaml)")
	return cmd
}
