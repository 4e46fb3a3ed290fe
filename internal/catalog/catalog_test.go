package catalog

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFormats(t *testing.T) {
	fromYAML, err := Load(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	fromTOML, err := Load(filepath.Join("testdata", "catalog.toml"))
	require.NoError(t, err)

	if diff := cmp.Diff(fromYAML, fromTOML); diff != "" {
		t.Fatalf("yaml and toml catalogs differ (-yaml +toml):\n%s", diff)
	}

	kt := fromTOML.DefaultKubeType()
	assert.Equal(t, "Tiny", kt.Name)
	assert.Equal(t, 2.0, kt.CPU)

	pkg := fromTOML.DefaultPackage()
	assert.Equal(t, 5, pkg.ID)
	assert.True(t, pkg.HasKube(3))
	assert.False(t, pkg.HasKube(1))

	huge, ok := fromTOML.KubeType(3)
	require.True(t, ok)
	assert.Equal(t, 15.5, pkg.KubePrice(huge))
	assert.Equal(t, 2.0, pkg.KubePrice(kt))
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, c.DefaultKubeType().ID)
	pkg := c.DefaultPackage()
	assert.True(t, pkg.Default)
	for _, kt := range c.KubeTypes {
		assert.True(t, pkg.HasKube(kt.ID), kt.Name)
	}
	_, ok := c.Package(42)
	assert.False(t, ok)
}

func TestDefaultPackageFallsBackToFirst(t *testing.T) {
	c, err := Parse([]byte(`
defaultKubeType: 1
kubeTypes: [{id: 1}]
packages: [{id: 7, name: first}, {id: 8, name: second}]
`), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 7, c.DefaultPackage().ID)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"duplicate kube": `
defaultKubeType: 1
kubeTypes: [{id: 1}, {id: 1}]
packages: [{id: 1}]`,
		"unknown default kube": `
defaultKubeType: 9
kubeTypes: [{id: 1}]
packages: [{id: 1}]`,
		"no packages": `
defaultKubeType: 1
kubeTypes: [{id: 1}]`,
		"duplicate package": `
defaultKubeType: 1
kubeTypes: [{id: 1}]
packages: [{id: 1}, {id: 1}]`,
		"unknown package kube": `
defaultKubeType: 1
kubeTypes: [{id: 1}]
packages: [{id: 1, kubes: [{kubeID: 4}]}]`,
		"two defaults": `
defaultKubeType: 1
kubeTypes: [{id: 1}]
packages: [{id: 1, default: true}, {id: 2, default: true}]`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), FormatYAML)
			assert.Error(t, err)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatFromPath("x/catalog.TOML"))
	assert.Equal(t, FormatYAML, FormatFromPath("catalog.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("catalog"))
}
