package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/kdapps/internal/plans"
)

// newPlansCommand creates the "plans" subcommand that prints expanded plans with resources and price.
func newPlansCommand(opts *Options) *cobra.Command {
	var src sourceFlags
	var output, only string

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Show template plans with resources and price",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			app, err := loadApp(cmd, opts, src)
			if err != nil {
				return err
			}
			all, err := app.Plans()
			if err != nil {
				return err
			}

			filter := parseNameSet(only)
			var list []plans.Plan
			for _, p := range all {
				if selected(filter, p.Name) {
					list = append(list, p)
				}
			}
			if format != outputTable {
				return writeStructured(cmd.OutOrStdout(), format, list)
			}

			rows := make([][]string, 0, len(list))
			for _, p := range list {
				name := p.Name
				if p.Recommended {
					name += " *"
				}
				row := []string{name, p.GoodFor}
				if info := p.Info; info != nil {
					row = append(row,
						info.KubeType.Name,
						strconv.Itoa(info.TotalKubes),
						formatNumber(info.CPU),
						formatNumber(info.Memory),
						strconv.Itoa(info.TotalPD),
						strconv.FormatBool(info.PublicIP),
						formatPrice(info),
					)
				}
				rows = append(rows, row)
			}
			headers := []string{"PLAN", "GOOD FOR", "KUBE TYPE", "KUBES", "CPU", "MEMORY", "PD", "PUBLIC IP", "PRICE"}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows))
			return err
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&only, "only", "", "Show only selected plans (comma-separated names)")
	return cmd
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPrice(info *plans.Info) string {
	price := info.Prefix + strconv.FormatFloat(info.Price, 'f', 2, 64) + info.Suffix
	if info.Period != "" {
		price += " / " + info.Period
	}
	return price
}
