package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/kdapps/internal/apps"
	"github.com/codex-k8s/kdapps/internal/storage"
)

// newSaveCommand creates the "save" subcommand that validates a template file and stores it.
func newSaveCommand(opts *Options) *cobra.Command {
	var file, id, name string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Validate a template and put it into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read template %q: %w", file, err)
			}
			if id == "" {
				id = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			if name == "" {
				name = id
			}
			cat, err := loadCatalog(opts)
			if err != nil {
				return err
			}
			if err := apps.Validate(string(data), cat); err != nil {
				logger.Warn("template is invalid", "app", id, "error", err)
				return err
			}

			store, err := openStore(cmd, opts)
			if err != nil {
				return err
			}
			rec, err := store.Put(cmd.Context(), storage.Record{ID: id, Name: name, Template: string(data)})
			if err != nil {
				return err
			}
			logger.Info("template saved", "app", rec.ID, "dir", store.Dir())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a template file")
	cmd.Flags().StringVar(&id, "id", "", "Template id (default: file name without extension)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: the id)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newListCommand creates the "list" subcommand.
func newListCommand(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			store, err := openStore(cmd, opts)
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if format != outputTable {
				type item struct {
					ID       string `json:"id" yaml:"id"`
					Name     string `json:"name" yaml:"name"`
					Modified string `json:"modified" yaml:"modified"`
				}
				items := make([]item, 0, len(records))
				for _, rec := range records {
					items = append(items, item{ID: rec.ID, Name: rec.Name, Modified: rec.Modified.Format(time.RFC3339)})
				}
				return writeStructured(cmd.OutOrStdout(), format, items)
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{rec.ID, rec.Name, rec.Modified.Format("2006-01-02 15:04")})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "NAME", "MODIFIED"}, rows))
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(outputTable), "Output format (table, json, yaml)")
	return cmd
}

// newDeleteCommand creates the "delete" subcommand.
func newDeleteCommand(opts *Options) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a template from the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd, opts)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			LoggerFromContext(cmd.Context()).Info("template deleted", "app", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Template id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
