package plans

import (
	"github.com/codex-k8s/kdapps/internal/apptemplate"
)

// Workload kinds that carry a pod spec.
const (
	KindPod                   = "Pod"
	KindReplicationController = "ReplicationController"
	KindDeployment            = "Deployment"
)

// PodSpec returns the pod spec of a filled template document.
// Pods keep it under `spec`; controllers under `spec.template.spec`.
func PodSpec(doc map[string]any) (map[string]any, error) {
	kind := stringValue(doc["kind"])
	spec, ok := getMap(doc, "spec")
	if !ok {
		return nil, apptemplate.Invalidf("%s has no spec", describeKind(kind))
	}
	switch kind {
	case KindPod:
		return spec, nil
	case KindReplicationController, KindDeployment:
		template, ok := getMap(spec, "template")
		if !ok {
			return nil, apptemplate.Invalidf("%s has no spec.template", kind)
		}
		podSpec, ok := getMap(template, "spec")
		if !ok {
			return nil, apptemplate.Invalidf("%s has no spec.template.spec", kind)
		}
		return podSpec, nil
	default:
		return nil, apptemplate.Invalidf("unsupported kind %s", describeKind(kind))
	}
}

func describeKind(kind string) string {
	if kind == "" {
		return `""`
	}
	return kind
}

// PodName returns metadata.name of a template document.
func PodName(doc map[string]any) string {
	meta, _ := getMap(doc, "metadata")
	return stringValue(meta["name"])
}

// HasPublicPorts reports whether any container of the pod spec exposes a public port.
func HasPublicPorts(spec map[string]any) bool {
	for _, container := range getSliceOfMaps(spec, "containers") {
		for _, port := range getSliceOfMaps(container, "ports") {
			if public, ok := port["isPublic"].(bool); ok && public {
				return true
			}
		}
	}
	return false
}

// containerNames lists container names of the pod spec in order.
func containerNames(spec map[string]any) []string {
	var names []string
	for _, c := range getSliceOfMaps(spec, "containers") {
		names = append(names, stringValue(c["name"]))
	}
	return names
}

// persistentVolumeNames lists names of pod spec volumes backed by a persistent disk.
func persistentVolumeNames(spec map[string]any) []string {
	var names []string
	for _, v := range getSliceOfMaps(spec, "volumes") {
		if !truthy(v["persistentDisk"]) {
			continue
		}
		names = append(names, stringValue(v["name"]))
	}
	return names
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
