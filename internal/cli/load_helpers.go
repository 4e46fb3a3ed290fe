package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/kdapps/internal/apps"
	"github.com/codex-k8s/kdapps/internal/apptemplate"
	"github.com/codex-k8s/kdapps/internal/catalog"
	"github.com/codex-k8s/kdapps/internal/env"
	"github.com/codex-k8s/kdapps/internal/storage"
)

// sourceFlags selects where a command reads its template from.
type sourceFlags struct {
	file string
	app  string
}

func addSourceFlags(cmd *cobra.Command, src *sourceFlags) {
	cmd.Flags().StringVarP(&src.file, "file", "f", "", "Path to a template file")
	cmd.Flags().StringVar(&src.app, "app", "", "Id of a stored template")
}

func addVarsFlags(cmd *cobra.Command) {
	cmd.Flags().String("vars", "", "Field values in k=v,k2=v2 format")
	cmd.Flags().String("var-file", "", "Path to YAML/ENV file with field values")
}

func loadCatalog(opts *Options) (*catalog.Catalog, error) {
	return catalog.Load(opts.Config.CatalogPath)
}

func openStore(cmd *cobra.Command, opts *Options) (*storage.FileStore, error) {
	return storage.NewFileStore(opts.Config.StoreDir, opts.Config.Owner, LoggerFromContext(cmd.Context()))
}

// readSource returns the template id, name and text selected by --file or --app.
func readSource(cmd *cobra.Command, opts *Options, src sourceFlags) (storage.Record, error) {
	app := src.app
	if app == "" && src.file == "" {
		var se sourceEnv
		if err := parseEnv(&se); err != nil {
			return storage.Record{}, err
		}
		app = se.App
	}
	switch {
	case src.file != "" && app != "":
		return storage.Record{}, fmt.Errorf("use either --file or --app, not both")
	case src.file != "":
		data, err := os.ReadFile(src.file)
		if err != nil {
			return storage.Record{}, fmt.Errorf("read template %q: %w", src.file, err)
		}
		id := strings.TrimSuffix(filepath.Base(src.file), filepath.Ext(src.file))
		return storage.Record{ID: id, Name: id, Template: string(data)}, nil
	case app != "":
		store, err := openStore(cmd, opts)
		if err != nil {
			return storage.Record{}, err
		}
		return store.Get(cmd.Context(), app)
	default:
		return storage.Record{}, fmt.Errorf("--file or --app is required")
	}
}

func loadApp(cmd *cobra.Command, opts *Options, src sourceFlags) (*apps.App, error) {
	rec, err := readSource(cmd, opts, src)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(opts)
	if err != nil {
		return nil, err
	}
	return apps.New(rec.ID, rec.Name, rec.Template, cat, LoggerFromContext(cmd.Context())), nil
}

// parseValues merges --var-file and --vars, inline values overriding file values.
// KDAPPS_VARS and KDAPPS_VAR_FILE are used when the flags are not set.
func parseValues(cmd *cobra.Command) (apptemplate.Values, error) {
	var fromEnv varsEnv
	if err := parseEnv(&fromEnv); err != nil {
		return nil, err
	}
	inline := cmd.Flag("vars").Value.String()
	if !cmd.Flags().Changed("vars") && envPresent("KDAPPS_VARS") {
		inline = fromEnv.Vars
	}
	varFile := cmd.Flag("var-file").Value.String()
	if !cmd.Flags().Changed("var-file") && envPresent("KDAPPS_VAR_FILE") {
		varFile = fromEnv.VarFile
	}

	values := make(apptemplate.Values)
	if varFile != "" {
		fileValues, err := env.LoadValuesFile(varFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	inlineVars, err := env.ParseInlineVars(inline)
	if err != nil {
		return nil, err
	}
	for k, v := range inlineVars.Values() {
		values[k] = v
	}
	return values, nil
}
