package plans

import (
	"github.com/codex-k8s/kdapps/internal/apptemplate"
)

// Validator checks the appPackages section of a template filled with defaults.
type Validator struct {
	Catalog Catalog
}

// NewValidator returns a validator resolving kube types through c.
func NewValidator(c Catalog) *Validator {
	return &Validator{Catalog: c}
}

type planNames struct {
	pods       map[string]bool
	containers map[string]bool
	disks      map[string]bool
}

// Validate returns an InvalidTemplateError describing the first violation found.
func (v *Validator) Validate(doc map[string]any) error {
	kd, ok := doc["kuberdock"].(map[string]any)
	if !ok {
		return apptemplate.Invalidf("kuberdock section must be a mapping")
	}
	raw, ok := kd["appPackages"]
	if !ok {
		return apptemplate.Invalidf("kuberdock.appPackages is missing")
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return apptemplate.Invalidf("kuberdock.appPackages must be a non-empty list")
	}

	planList := make([]map[string]any, 0, len(list))
	seen := make(map[string]bool, len(list))
	recommended := 0
	for i, item := range list {
		plan, ok := item.(map[string]any)
		if !ok {
			return apptemplate.Invalidf("appPackages[%d] must be a mapping", i)
		}
		name, ok := plan["name"].(string)
		if !ok || name == "" {
			return apptemplate.Invalidf("appPackages[%d] must have a non-empty name", i)
		}
		if seen[name] {
			return apptemplate.Invalidf("duplicate appPackage name %q", name)
		}
		seen[name] = true
		if r, ok := plan["recommended"]; ok {
			b, isBool := r.(bool)
			if !isBool {
				return apptemplate.Invalidf("appPackage %q: recommended must be a boolean", name)
			}
			if b {
				recommended++
			}
		}
		planList = append(planList, plan)
	}
	if len(planList) > 1 && recommended != 1 {
		return apptemplate.Invalidf("exactly one appPackage must be recommended, found %d", recommended)
	}

	spec, err := PodSpec(doc)
	if err != nil {
		return err
	}
	expander := &Expander{Catalog: v.Catalog}
	pkg := expander.Package(doc)

	baseline := planNames{
		pods:       map[string]bool{PodName(doc): true},
		containers: toSet(containerNames(spec)),
		disks:      toSet(persistentVolumeNames(spec)),
	}
	for i, plan := range planList {
		names, err := v.checkPlan(plan, baseline)
		if err != nil {
			return err
		}
		if i == 0 {
			baseline = names
		}
		pods := getSliceOfMaps(plan, "pods")
		if len(pods) == 0 {
			// Expansion adds a single pod with the default kube type.
			pods = []map[string]any{{}}
		}
		for _, pod := range pods {
			id := v.Catalog.DefaultKubeType().ID
			if kubeType := pod["kubeType"]; kubeType != nil {
				var ok bool
				if id, ok = toInt(kubeType); !ok {
					return apptemplate.Invalidf("appPackage %q: kubeType must be an integer", plan["name"])
				}
				if _, ok := v.Catalog.KubeType(id); !ok {
					return apptemplate.Invalidf("appPackage %q: unknown kube type %d", plan["name"], id)
				}
			}
			if !pkg.HasKube(id) {
				return apptemplate.Invalidf("kube type %d not found in %q package", id, pkg.Name)
			}
		}
	}
	return nil
}

// checkPlan verifies that plan names are a subset of allowed and returns the names it uses.
func (v *Validator) checkPlan(plan map[string]any, allowed planNames) (planNames, error) {
	planName := stringValue(plan["name"])
	names := planNames{
		pods:       make(map[string]bool),
		containers: make(map[string]bool),
		disks:      make(map[string]bool),
	}
	rawPods, ok := plan["pods"]
	if !ok || rawPods == nil {
		return names, nil
	}
	pods, ok := rawPods.([]any)
	if !ok {
		return names, apptemplate.Invalidf("appPackage %q: pods must be a list", planName)
	}
	for _, item := range pods {
		pod, ok := item.(map[string]any)
		if !ok {
			return names, apptemplate.Invalidf("appPackage %q: pod must be a mapping", planName)
		}
		podName, ok := pod["name"].(string)
		if !ok || podName == "" {
			return names, apptemplate.Invalidf("appPackage %q: pod name is required", planName)
		}
		if !allowed.pods[podName] {
			return names, apptemplate.Invalidf("pod %q not found in spec", podName)
		}
		if names.pods[podName] {
			return names, apptemplate.Invalidf("duplicate pod name %q in appPackage %q", podName, planName)
		}
		names.pods[podName] = true

		if err := checkItems(pod, "containers", "kubes", "container", podName, allowed.containers, names.containers); err != nil {
			return names, err
		}
		if err := checkItems(pod, "persistentDisks", "pdSize", "volume", podName, allowed.disks, names.disks); err != nil {
			return names, err
		}
	}
	return names, nil
}

func checkItems(pod map[string]any, key, sizeKey, what, podName string, allowed, used map[string]bool) error {
	raw, ok := pod[key]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return apptemplate.Invalidf("pod %q: %s must be a list", podName, key)
	}
	local := make(map[string]bool, len(items))
	for _, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			return apptemplate.Invalidf("pod %q: %s entries must be mappings", podName, key)
		}
		name := stringValue(item["name"])
		if !allowed[name] {
			return apptemplate.Invalidf("%s %q not found in pod %q", what, name, podName)
		}
		if local[name] {
			return apptemplate.Invalidf("duplicate %s name %q in pod %q", what, name, podName)
		}
		local[name] = true
		used[name] = true
		if size, ok := item[sizeKey]; ok && size != nil {
			if n, ok := toInt(size); !ok || n < 1 {
				return apptemplate.Invalidf("pod %q: %s %q %s must be a positive integer", podName, what, name, sizeKey)
			}
		}
	}
	return nil
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
