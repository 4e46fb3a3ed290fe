package plans

import (
	"github.com/codex-k8s/kdapps/internal/apptemplate"
)

// TemplateIDKey is the kuberdock key that links a document to the template it came from.
const TemplateIDKey = "kuberdock_template_id"

// Apply folds an expanded plan into a filled single-plan document in place:
// appPackages is replaced by appPackage and the plan sizes are copied onto the pod spec.
func (e *Expander) Apply(doc map[string]any, plan map[string]any) error {
	spec, err := PodSpec(doc)
	if err != nil {
		return err
	}
	pods := getSliceOfMaps(plan, "pods")
	if len(pods) == 0 {
		return apptemplate.Invalidf("plan %q has no pods", stringValue(plan["name"]))
	}
	planPod := pods[0]

	kd := getOrCreateMap(doc, "kuberdock")
	delete(kd, "appPackages")
	goodFor, ok := plan["goodFor"]
	if !ok {
		goodFor = ""
	}
	appPackage := map[string]any{
		"name":     plan["name"],
		"goodFor":  goodFor,
		"kubeType": planPod["kubeType"],
	}
	kd["appPackage"] = appPackage

	updateKubes(planPod, spec)
	updateVolumes(planPod, spec)

	publicPorts := e.PublicPorts
	if publicPorts == nil {
		publicPorts = HasPublicPorts
	}
	if plan["publicIP"] == false && publicPorts(spec) {
		for _, container := range getSliceOfMaps(spec, "containers") {
			for _, port := range getSliceOfMaps(container, "ports") {
				port["isPublic"] = false
			}
		}
	}
	if truthy(plan["baseDomain"]) {
		appPackage["baseDomain"] = plan["baseDomain"]
	}
	if extra := stringValue(plan["packagePostDescription"]); extra != "" {
		if post := stringValue(kd["postDescription"]); post != "" {
			kd["postDescription"] = post + "\n" + extra
		} else {
			kd["postDescription"] = extra
		}
	}
	return nil
}

// updateKubes copies container kubes from the plan pod onto spec containers with the same name.
func updateKubes(planPod, spec map[string]any) {
	kubes := make(map[string]any)
	for _, c := range getSliceOfMaps(planPod, "containers") {
		kubes[stringValue(c["name"])] = c["kubes"]
	}
	for _, c := range getSliceOfMaps(spec, "containers") {
		if n, ok := kubes[stringValue(c["name"])]; ok {
			c["kubes"] = n
		}
	}
}

// updateVolumes copies pdSize from the plan pod onto persistent spec volumes, 1 when absent.
func updateVolumes(planPod, spec map[string]any) {
	sizes := make(map[string]any)
	for _, pd := range getSliceOfMaps(planPod, "persistentDisks") {
		sizes[stringValue(pd["name"])] = pd["pdSize"]
	}
	for _, v := range getSliceOfMaps(spec, "volumes") {
		pd, ok := getMap(v, "persistentDisk")
		if !ok || len(pd) == 0 {
			continue
		}
		size, ok := sizes[stringValue(v["name"])]
		if !ok {
			size = 1
		}
		pd["pdSize"] = size
	}
}
