// Package plans expands the appPackages section of a filled template into priced plans,
// applies a selected plan to the template and validates plan consistency.
package plans

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/apptemplate"
	"github.com/codex-k8s/kdapps/internal/catalog"
)

// Catalog provides kube type profiles and pricing packages.
type Catalog interface {
	KubeType(id int) (catalog.KubeType, bool)
	DefaultKubeType() catalog.KubeType
	Package(id int) (catalog.Package, bool)
	DefaultPackage() catalog.Package
}

// PublicPortsFunc reports whether a pod spec exposes at least one public port.
type PublicPortsFunc func(spec map[string]any) bool

// Plan is the typed view of an expanded plan.
type Plan struct {
	// Name is the plan name, for example "S".
	Name string `yaml:"name" json:"name"`
	// Description is free-form plan text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// GoodFor is a short audience tag.
	GoodFor string `yaml:"goodFor" json:"goodFor"`
	// PublicIP is false when the plan disables public ports.
	PublicIP bool `yaml:"publicIP" json:"publicIP"`
	// Recommended marks the default plan.
	Recommended bool `yaml:"recommended,omitempty" json:"recommended,omitempty"`
	// BaseDomain exposes the pod through a shared domain instead of a public IP.
	BaseDomain string `yaml:"baseDomain,omitempty" json:"baseDomain,omitempty"`
	// PackagePostDescription is appended to the post description when the plan is applied.
	PackagePostDescription string `yaml:"packagePostDescription,omitempty" json:"packagePostDescription,omitempty"`
	// Pods lists plan pods.
	Pods []Pod `yaml:"pods" json:"pods"`
	// Info holds computed resources and price; nil for lightweight expansion.
	Info *Info `yaml:"info,omitempty" json:"info,omitempty"`
}

// Pod is one pod of a plan.
type Pod struct {
	Name            string           `yaml:"name" json:"name"`
	KubeType        int              `yaml:"kubeType" json:"kubeType"`
	Containers      []Container      `yaml:"containers" json:"containers"`
	PersistentDisks []PersistentDisk `yaml:"persistentDisks" json:"persistentDisks"`
}

// Container assigns kubes to a pod spec container.
type Container struct {
	Name  string `yaml:"name" json:"name"`
	Kubes int    `yaml:"kubes" json:"kubes"`
}

// PersistentDisk sizes a persistent pod spec volume.
type PersistentDisk struct {
	Name   string `yaml:"name" json:"name"`
	PDSize int    `yaml:"pdSize" json:"pdSize"`
}

// Options tunes plan expansion.
type Options struct {
	// WithInfo computes resources and price for every plan.
	WithInfo bool
}

// Expander merges plan pods with the template pod spec and computes plan info.
type Expander struct {
	Catalog     Catalog
	PublicPorts PublicPortsFunc
}

// NewExpander returns an expander using the default public-port predicate.
func NewExpander(c Catalog) *Expander {
	return &Expander{Catalog: c, PublicPorts: HasPublicPorts}
}

// Locate returns the plan list of a filled document.
func Locate(doc map[string]any) ([]any, error) {
	kd, ok := getMap(doc, "kuberdock")
	if !ok {
		return nil, apptemplate.Invalidf("kuberdock section is missing")
	}
	raw, ok := kd["appPackages"]
	if !ok {
		return nil, apptemplate.Invalidf("kuberdock.appPackages is missing")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, apptemplate.Invalidf("kuberdock.appPackages is not a list")
	}
	return list, nil
}

// Names returns plan names in order.
func Names(list []any) []string {
	names := make([]string, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		names = append(names, stringValue(m["name"]))
	}
	return names
}

// IndexByName finds a plan by name.
// The error carries fuzzy matches of existing names when none is equal.
func IndexByName(list []any, name string) (int, error) {
	names := Names(list)
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	var suggestions []string
	for _, match := range fuzzy.Find(name, names) {
		suggestions = append(suggestions, match.Str)
	}
	return -1, &NoSuchAppPackageError{Index: -1, Name: name, Count: len(list), Suggestions: suggestions}
}

// CheckIndex fails with NoSuchAppPackageError when index is out of range.
func CheckIndex(list []any, index int) error {
	if index < 0 || index >= len(list) {
		return &NoSuchAppPackageError{Index: index, Count: len(list)}
	}
	return nil
}

// Expand expands every plan of a filled document in place and returns them.
func (e *Expander) Expand(doc map[string]any, opts Options) ([]map[string]any, error) {
	list, err := Locate(doc)
	if err != nil {
		return nil, err
	}
	return e.ExpandList(doc, list, opts)
}

// ExpandPlan expands the plan at index. An invalid index fails before any expansion.
func (e *Expander) ExpandPlan(doc map[string]any, index int, opts Options) (map[string]any, error) {
	list, err := Locate(doc)
	if err != nil {
		return nil, err
	}
	if err := CheckIndex(list, index); err != nil {
		return nil, err
	}
	expanded, err := e.ExpandList(doc, list[index:index+1], opts)
	if err != nil {
		return nil, err
	}
	return expanded[0], nil
}

// ExpandList expands an already located plan list in place.
// doc supplies the pod spec and the package selection.
func (e *Expander) ExpandList(doc map[string]any, list []any, opts Options) ([]map[string]any, error) {
	spec, err := PodSpec(doc)
	if err != nil {
		return nil, err
	}
	pkg := e.Package(doc)
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		plan, ok := item.(map[string]any)
		if !ok {
			return nil, apptemplate.Invalidf("appPackages[%d] is not a mapping", i)
		}
		e.expandPlan(plan, spec)
		if opts.WithInfo {
			plan["info"] = e.Info(plan, spec, pkg)
		}
		out = append(out, plan)
	}
	return out, nil
}

func (e *Expander) expandPlan(plan, spec map[string]any) {
	if _, ok := plan["goodFor"]; !ok {
		plan["goodFor"] = ""
	}
	plan["publicIP"] = plan["publicIP"] != false
	if _, ok := plan["pods"].([]any); !ok {
		plan["pods"] = []any{map[string]any{}}
	}
	pods := plan["pods"].([]any)
	for i, item := range pods {
		pod, ok := item.(map[string]any)
		if !ok {
			pod = map[string]any{}
			pods[i] = pod
		}
		if pod["kubeType"] == nil {
			pod["kubeType"] = e.Catalog.DefaultKubeType().ID
		}
		if _, ok := pod["name"]; !ok {
			pod["name"] = nil
		}
		for _, key := range []string{"containers", "persistentDisks"} {
			if _, ok := pod[key].([]any); !ok {
				pod[key] = []any{}
			}
		}
		equalizeContainers(spec, pod)
		fillPersistentDisks(spec, pod)
	}
}

// equalizeContainers normalizes kubes and adds spec containers missing from the plan pod.
func equalizeContainers(spec, pod map[string]any) {
	pending := containerNames(spec)
	containers := pod["containers"].([]any)
	for _, item := range containers {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := toInt(c["kubes"]); !ok {
			c["kubes"] = 1
		}
		pending = removeName(pending, stringValue(c["name"]))
	}
	for _, name := range pending {
		containers = append(containers, map[string]any{"name": name, "kubes": 1})
	}
	pod["containers"] = containers
}

// fillPersistentDisks normalizes pdSize and adds spec persistent volumes missing from the plan pod.
func fillPersistentDisks(spec, pod map[string]any) {
	pending := persistentVolumeNames(spec)
	disks := pod["persistentDisks"].([]any)
	for _, item := range disks {
		pd, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := toInt(pd["pdSize"]); !ok {
			pd["pdSize"] = 1
		}
		pending = removeName(pending, stringValue(pd["name"]))
	}
	for _, name := range pending {
		disks = append(disks, map[string]any{"name": name, "pdSize": 1})
	}
	pod["persistentDisks"] = disks
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i:i], names[i+1:]...)
		}
	}
	return names
}

// Package resolves `kuberdock.packageID`; a missing or unknown id selects the default package.
func (e *Expander) Package(doc map[string]any) catalog.Package {
	kd, _ := getMap(doc, "kuberdock")
	if id, ok := toInt(kd["packageID"]); ok {
		if pkg, ok := e.Catalog.Package(id); ok {
			return pkg
		}
	}
	return e.Catalog.DefaultPackage()
}

// Decode converts an expanded plan into its typed form.
func Decode(plan map[string]any) (Plan, error) {
	var node yaml.Node
	if err := node.Encode(plan); err != nil {
		return Plan{}, fmt.Errorf("encode plan: %w", err)
	}
	var out Plan
	if err := node.Decode(&out); err != nil {
		return Plan{}, &apptemplate.InvalidTemplateError{Reason: fmt.Sprintf("plan %q", stringValue(plan["name"])), Err: err}
	}
	return out, nil
}

// DecodeAll converts expanded plans into their typed form.
func DecodeAll(list []map[string]any) ([]Plan, error) {
	out := make([]Plan, 0, len(list))
	for _, plan := range list {
		p, err := Decode(plan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
