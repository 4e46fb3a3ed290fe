// Package apps exposes application templates: filling them for a plan, listing priced plans,
// validating them and recognising documents produced from them.
package apps

import (
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/apptemplate"
	"github.com/codex-k8s/kdapps/internal/logging"
	"github.com/codex-k8s/kdapps/internal/plans"
)

// App is one application template together with the catalog used to price it.
// The loaded template is built once and shared by every fill; App is safe for concurrent use.
type App struct {
	// ID is the template identifier written to `kuberdock.kuberdock_template_id`.
	ID string
	// Name is the display name.
	Name string
	// Template is the raw template text.
	Template string

	expander  *plans.Expander
	validator *plans.Validator
	logger    *slog.Logger

	mu         sync.Mutex
	loaded     *apptemplate.Document
	filled     *apptemplate.Filled
	expanded   []map[string]any
	usedByPlan map[int][]string
}

// New returns an App. A nil logger discards log records.
func New(id, name, template string, cat plans.Catalog, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{
		ID:         id,
		Name:       name,
		Template:   template,
		expander:   plans.NewExpander(cat),
		validator:  plans.NewValidator(cat),
		logger:     logger.With("app", id),
		usedByPlan: make(map[int][]string),
	}
}

// Loaded returns the scanned and parsed template.
func (a *App) Loaded() (*apptemplate.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadedLocked()
}

func (a *App) loadedLocked() (*apptemplate.Document, error) {
	if a.loaded != nil {
		return a.loaded, nil
	}
	doc, err := apptemplate.Load(a.Template)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("template loaded", "fields", doc.Fields.Len())
	a.loaded = doc
	return doc, nil
}

// Fields returns the declared template fields in order of first occurrence.
func (a *App) Fields() ([]apptemplate.Field, error) {
	doc, err := a.Loaded()
	if err != nil {
		return nil, err
	}
	return doc.Fields.Fields(), nil
}

// FilledTemplate returns a copy of the template filled with defaults.
func (a *App) FilledTemplate() (map[string]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	filled, err := a.filledLocked()
	if err != nil {
		return nil, err
	}
	return plans.CloneDocument(filled.Root), nil
}

func (a *App) filledLocked() (*apptemplate.Filled, error) {
	if a.filled != nil {
		return a.filled, nil
	}
	doc, err := a.loadedLocked()
	if err != nil {
		return nil, err
	}
	filled, err := doc.Fill(nil)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("template filled with defaults", "used", len(filled.Used))
	a.filled = filled
	return filled, nil
}

// squeeze returns the loaded template reduced to the plan at index.
func (a *App) squeeze(index int) (*apptemplate.Document, error) {
	doc, err := a.Loaded()
	if err != nil {
		return nil, err
	}
	node, ok := doc.Lookup("kuberdock", "appPackages")
	if !ok {
		return nil, apptemplate.Invalidf("kuberdock.appPackages is missing")
	}
	seq, ok := node.(*apptemplate.Sequence)
	if !ok {
		return nil, apptemplate.Invalidf("kuberdock.appPackages is not a list")
	}
	if index < 0 || index >= len(seq.Items) {
		return nil, &plans.NoSuchAppPackageError{Index: index, Count: len(seq.Items)}
	}
	return doc.With(&apptemplate.Sequence{Items: seq.Items[index : index+1]}, "kuberdock", "appPackages")
}

// FilledTemplateForPlan fills the template for one plan and applies the plan to it.
// The result has `kuberdock.appPackage` instead of `kuberdock.appPackages`.
func (a *App) FilledTemplateForPlan(index int, values apptemplate.Values) (map[string]any, error) {
	doc, err := a.squeeze(index)
	if err != nil {
		return nil, err
	}
	filled, err := doc.Fill(values)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	if _, ok := a.usedByPlan[index]; !ok {
		a.usedByPlan[index] = filled.Used
	}
	a.mu.Unlock()

	root := filled.Root
	plan, err := a.expander.ExpandPlan(root, 0, plans.Options{})
	if err != nil {
		return nil, err
	}
	if err := a.expander.Apply(root, plan); err != nil {
		return nil, err
	}
	kd, ok := root["kuberdock"].(map[string]any)
	if !ok {
		return nil, apptemplate.Invalidf("kuberdock section must be a mapping")
	}
	kd[plans.TemplateIDKey] = a.ID
	return root, nil
}

// OrderedYAML encodes a filled document with mapping keys in template order.
func (a *App) OrderedYAML(filled map[string]any) (*yaml.Node, error) {
	doc, err := a.Loaded()
	if err != nil {
		return nil, err
	}
	return doc.Ordered(filled)
}

// FilledTemplateForPlanByName is FilledTemplateForPlan with the plan selected by name.
func (a *App) FilledTemplateForPlanByName(name string, values apptemplate.Values) (map[string]any, error) {
	index, err := a.PlanIndex(name)
	if err != nil {
		return nil, err
	}
	return a.FilledTemplateForPlan(index, values)
}

// PlanIndex returns the index of the plan called name.
func (a *App) PlanIndex(name string) (int, error) {
	filled, err := a.FilledTemplate()
	if err != nil {
		return -1, err
	}
	list, err := plans.Locate(filled)
	if err != nil {
		return -1, err
	}
	return plans.IndexByName(list, name)
}

// UsedPlanFields returns the names of fields referenced when filling the plan at index.
func (a *App) UsedPlanFields(index int) ([]string, error) {
	a.mu.Lock()
	used, ok := a.usedByPlan[index]
	a.mu.Unlock()
	if ok {
		return used, nil
	}
	if _, err := a.FilledTemplateForPlan(index, nil); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usedByPlan[index], nil
}

// ExpandedPlans returns a copy of all plans expanded with info.
func (a *App) ExpandedPlans() ([]map[string]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.expanded == nil {
		filled, err := a.filledLocked()
		if err != nil {
			return nil, err
		}
		expanded, err := a.expander.Expand(plans.CloneDocument(filled.Root), plans.Options{WithInfo: true})
		if err != nil {
			return nil, err
		}
		a.logger.Debug("plans expanded", "count", len(expanded))
		a.expanded = expanded
	}
	out := make([]map[string]any, 0, len(a.expanded))
	for _, plan := range a.expanded {
		out = append(out, plans.CloneDocument(plan))
	}
	return out, nil
}

// Plans returns all plans expanded with info.
func (a *App) Plans() ([]plans.Plan, error) {
	expanded, err := a.ExpandedPlans()
	if err != nil {
		return nil, err
	}
	return plans.DecodeAll(expanded)
}

// Plan returns the expanded plan at index.
func (a *App) Plan(index int) (plans.Plan, error) {
	all, err := a.Plans()
	if err != nil {
		return plans.Plan{}, err
	}
	if index < 0 || index >= len(all) {
		return plans.Plan{}, &plans.NoSuchAppPackageError{Index: index, Count: len(all)}
	}
	return all[index], nil
}

// PreDescription returns `kuberdock.preDescription` of the default-filled template.
func (a *App) PreDescription() (string, error) {
	filled, err := a.FilledTemplate()
	if err != nil {
		return "", err
	}
	kd, _ := filled["kuberdock"].(map[string]any)
	s, _ := kd["preDescription"].(string)
	return s, nil
}

// Validate checks the template. It returns an InvalidTemplateError on the first violation.
func (a *App) Validate() error {
	filled, err := a.FilledTemplate()
	if err != nil {
		return err
	}
	if err := a.validator.Validate(filled); err != nil {
		return err
	}
	if _, err := a.ExpandedPlans(); err != nil {
		return fmt.Errorf("expand plans: %w", err)
	}
	return nil
}

// Validate checks raw template text against cat.
func Validate(template string, cat plans.Catalog) error {
	return New("", "", template, cat, nil).Validate()
}
