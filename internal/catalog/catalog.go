// Package catalog contains the kube type and pricing package model used to expand plans.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// KubeType is the per-unit resource profile of one kube.
type KubeType struct {
	// ID identifies the kube type in templates (`kubeType`).
	ID int `yaml:"id" toml:"id" json:"id"`
	// Name is the display name.
	Name string `yaml:"name" toml:"name" json:"name"`
	// CPU is the number of cores per kube.
	CPU float64 `yaml:"cpu" toml:"cpu" json:"cpu"`
	// Memory is the amount of memory per kube, in MemoryUnits.
	Memory float64 `yaml:"memory" toml:"memory" json:"memory"`
	// DiskSpace is the local disk per kube, in DiskSpaceUnits.
	DiskSpace float64 `yaml:"diskSpace" toml:"diskSpace" json:"diskSpace"`
	// Price is the per-kube price used when a package does not override it.
	Price float64 `yaml:"price" toml:"price" json:"price"`
	// CPUUnits is the display unit of CPU.
	CPUUnits string `yaml:"cpuUnits,omitempty" toml:"cpuUnits" json:"cpuUnits,omitempty"`
	// MemoryUnits is the display unit of Memory.
	MemoryUnits string `yaml:"memoryUnits,omitempty" toml:"memoryUnits" json:"memoryUnits,omitempty"`
	// DiskSpaceUnits is the display unit of DiskSpace.
	DiskSpaceUnits string `yaml:"diskSpaceUnits,omitempty" toml:"diskSpaceUnits" json:"diskSpaceUnits,omitempty"`
}

// PackageKube assigns a kube type to a package.
type PackageKube struct {
	// KubeID references KubeType.ID.
	KubeID int `yaml:"kubeID" toml:"kubeID" json:"kubeID"`
	// Price overrides the kube type price inside the package.
	Price *float64 `yaml:"price,omitempty" toml:"price" json:"price,omitempty"`
}

// Package is a pricing package.
type Package struct {
	// ID identifies the package (`kuberdock.packageID`).
	ID int `yaml:"id" toml:"id" json:"id"`
	// Name is the display name.
	Name string `yaml:"name" toml:"name" json:"name"`
	// Default marks the package used when a template does not select one.
	Default bool `yaml:"default,omitempty" toml:"default" json:"default,omitempty"`
	// PriceIP is the price of a public IP.
	PriceIP float64 `yaml:"priceIP" toml:"priceIP" json:"priceIP"`
	// PricePStorage is the price of one unit of persistent storage.
	PricePStorage float64 `yaml:"pricePStorage" toml:"pricePStorage" json:"pricePStorage"`
	// Period is the billing period, for example "month".
	Period string `yaml:"period,omitempty" toml:"period" json:"period,omitempty"`
	// Prefix and Suffix decorate prices, for example "$" and " USD".
	Prefix string `yaml:"prefix,omitempty" toml:"prefix" json:"prefix,omitempty"`
	Suffix string `yaml:"suffix,omitempty" toml:"suffix" json:"suffix,omitempty"`
	// Kubes lists kube types available in the package.
	Kubes []PackageKube `yaml:"kubes,omitempty" toml:"kubes" json:"kubes,omitempty"`
}

// HasKube reports whether the kube type is assigned to the package.
func (p Package) HasKube(kubeID int) bool {
	for _, k := range p.Kubes {
		if k.KubeID == kubeID {
			return true
		}
	}
	return false
}

// KubePrice returns the price of one kube of kt inside the package.
func (p Package) KubePrice(kt KubeType) float64 {
	for _, k := range p.Kubes {
		if k.KubeID == kt.ID && k.Price != nil {
			return *k.Price
		}
	}
	return kt.Price
}

// Catalog is the set of kube types and packages available to templates.
// A loaded Catalog is read-only and safe for concurrent use.
type Catalog struct {
	// DefaultKubeTypeID is used for pods that do not declare a kube type.
	DefaultKubeTypeID int `yaml:"defaultKubeType" toml:"defaultKubeType" json:"defaultKubeType"`
	// KubeTypes lists known kube types.
	KubeTypes []KubeType `yaml:"kubeTypes" toml:"kubeTypes" json:"kubeTypes"`
	// Packages lists known packages.
	Packages []Package `yaml:"packages" toml:"packages" json:"packages"`
}

// KubeType returns the kube type with the given id.
func (c *Catalog) KubeType(id int) (KubeType, bool) {
	for _, kt := range c.KubeTypes {
		if kt.ID == id {
			return kt, true
		}
	}
	return KubeType{}, false
}

// DefaultKubeType returns the deployment-wide default kube type.
func (c *Catalog) DefaultKubeType() KubeType {
	kt, _ := c.KubeType(c.DefaultKubeTypeID)
	return kt
}

// Package returns the package with the given id.
func (c *Catalog) Package(id int) (Package, bool) {
	for _, p := range c.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// DefaultPackage returns the package marked default, or the first package.
func (c *Catalog) DefaultPackage() Package {
	for _, p := range c.Packages {
		if p.Default {
			return p
		}
	}
	if len(c.Packages) > 0 {
		return c.Packages[0]
	}
	return Package{}
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, FormatYAML)
}

// Format is a catalog file format.
type Format string

const (
	// FormatYAML is the YAML catalog format.
	FormatYAML Format = "yaml"
	// FormatTOML is the TOML catalog format.
	FormatTOML Format = "toml"
)

// FormatFromPath guesses the catalog format from a file extension.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	c, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog.
func Parse(data []byte, format Format) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode toml catalog: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks catalog consistency.
func (c *Catalog) Validate() error {
	kubeIDs := make(map[int]bool, len(c.KubeTypes))
	for _, kt := range c.KubeTypes {
		if kubeIDs[kt.ID] {
			return fmt.Errorf("duplicate kube type id %d", kt.ID)
		}
		kubeIDs[kt.ID] = true
	}
	if !kubeIDs[c.DefaultKubeTypeID] {
		return fmt.Errorf("default kube type %d is not defined", c.DefaultKubeTypeID)
	}
	if len(c.Packages) == 0 {
		return fmt.Errorf("catalog has no packages")
	}
	packageIDs := make(map[int]bool, len(c.Packages))
	defaults := 0
	for _, p := range c.Packages {
		if packageIDs[p.ID] {
			return fmt.Errorf("duplicate package id %d", p.ID)
		}
		packageIDs[p.ID] = true
		if p.Default {
			defaults++
		}
		for _, k := range p.Kubes {
			if !kubeIDs[k.KubeID] {
				return fmt.Errorf("package %q references unknown kube type %d", p.Name, k.KubeID)
			}
		}
	}
	if defaults > 1 {
		return fmt.Errorf("catalog has %d default packages, at most one is allowed", defaults)
	}
	return nil
}
