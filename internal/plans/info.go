package plans

import (
	"github.com/codex-k8s/kdapps/internal/catalog"
)

// Info is the computed resource and price summary of a plan.
type Info struct {
	CPU        float64 `yaml:"cpu" json:"cpu"`
	Memory     float64 `yaml:"memory" json:"memory"`
	DiskSpace  float64 `yaml:"diskSpace" json:"diskSpace"`
	Price      float64 `yaml:"price" json:"price"`
	TotalKubes int     `yaml:"totalKubes" json:"totalKubes"`
	TotalPD    int     `yaml:"totalPD" json:"totalPD"`
	PublicIP   bool    `yaml:"publicIP" json:"publicIP"`
	// KubeType is the profile of the last pod of the plan.
	KubeType catalog.KubeType `yaml:"kubeType" json:"kubeType"`
	Period   string           `yaml:"period,omitempty" json:"period,omitempty"`
	Prefix   string           `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Suffix   string           `yaml:"suffix,omitempty" json:"suffix,omitempty"`
}

// Info computes resources and price of an expanded plan.
// Every pod is weighted by its own kube type; the package may override kube prices.
func (e *Expander) Info(plan, spec map[string]any, pkg catalog.Package) Info {
	publicPorts := e.PublicPorts
	if publicPorts == nil {
		publicPorts = HasPublicPorts
	}
	info := Info{
		PublicIP: plan["publicIP"] != false &&
			publicPorts(spec) &&
			!truthy(plan["baseDomain"]),
		KubeType: e.Catalog.DefaultKubeType(),
		Period:   pkg.Period,
		Prefix:   pkg.Prefix,
		Suffix:   pkg.Suffix,
	}

	for _, pod := range getSliceOfMaps(plan, "pods") {
		kt := e.kubeType(pod["kubeType"])
		kubes := 0
		for _, c := range getSliceOfMaps(pod, "containers") {
			n, _ := toInt(c["kubes"])
			kubes += n
		}
		for _, pd := range getSliceOfMaps(pod, "persistentDisks") {
			n, _ := toInt(pd["pdSize"])
			info.TotalPD += n
		}
		info.TotalKubes += kubes
		info.CPU += float64(kubes) * kt.CPU
		info.Memory += float64(kubes) * kt.Memory
		info.DiskSpace += float64(kubes) * kt.DiskSpace
		info.Price += float64(kubes) * pkg.KubePrice(kt)
		info.KubeType = kt
	}

	info.Price += pkg.PricePStorage * float64(info.TotalPD)
	if info.PublicIP {
		info.Price += pkg.PriceIP
	}
	return info
}

func (e *Expander) kubeType(v any) catalog.KubeType {
	if id, ok := toInt(v); ok {
		if kt, ok := e.Catalog.KubeType(id); ok {
			return kt
		}
	}
	return e.Catalog.DefaultKubeType()
}
