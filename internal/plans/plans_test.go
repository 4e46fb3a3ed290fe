package plans

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/apptemplate"
	"github.com/codex-k8s/kdapps/internal/catalog"
)

const testCatalog = `
defaultKubeType: 2
kubeTypes:
  - {id: 2, name: Tiny, cpu: 2.0, memory: 100, diskSpace: 4, price: 2.0}
  - {id: 3, name: Huge, cpu: 8.0, memory: 4096, diskSpace: 40, price: 20.0}
  - {id: 4, name: Orphan, cpu: 1.0, memory: 10, diskSpace: 1, price: 1.0}
packages:
  - id: 1
    name: Other
    default: true
    kubes: [{kubeID: 4}]
  - id: 5
    name: Hosting
    priceIP: 10
    pricePStorage: 10
    period: month
    prefix: $
    kubes:
      - kubeID: 2
      - {kubeID: 3, price: 15.5}
`

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog), catalog.FormatYAML)
	require.NoError(t, err)
	return c
}

func loadDoc(t *testing.T) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "wordpress.yaml"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func plansOf(doc map[string]any) []any {
	return doc["kuberdock"].(map[string]any)["appPackages"].([]any)
}

func TestExpandWithInfo(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	expanded, err := e.Expand(loadDoc(t), Options{WithInfo: true})
	require.NoError(t, err)

	typed, err := DecodeAll(expanded)
	require.NoError(t, err)
	require.Len(t, typed, 3)

	small := typed[0].Info
	require.NotNil(t, small)
	assert.Equal(t, 14.0, small.CPU)
	assert.Equal(t, 700.0, small.Memory)
	assert.Equal(t, 28.0, small.DiskSpace)
	assert.Equal(t, 94.0, small.Price)
	assert.Equal(t, 7, small.TotalKubes)
	assert.Equal(t, 7, small.TotalPD)
	assert.True(t, small.PublicIP)
	assert.Equal(t, "month", small.Period)
	assert.Equal(t, "$", small.Prefix)

	medium := typed[1]
	assert.False(t, medium.PublicIP)
	assert.Equal(t, []Container{{Name: "wordpress", Kubes: 3}, {Name: "mysql", Kubes: 1}}, medium.Pods[0].Containers)
	assert.Equal(t, []PersistentDisk{
		{Name: "mysql-persistent-storage", PDSize: 1},
		{Name: "wordpress-persistent-storage", PDSize: 1},
	}, medium.Pods[0].PersistentDisks)
	assert.Equal(t, 2, medium.Pods[0].KubeType)
	assert.False(t, medium.Info.PublicIP)
	assert.Equal(t, 28.0, medium.Info.Price)

	large := typed[2].Info
	assert.False(t, large.PublicIP, "plans with a base domain need no public IP")
	assert.Equal(t, 24.0, large.CPU)
	assert.Equal(t, 66.5, large.Price)
	assert.Equal(t, "Huge", large.KubeType.Name)
}

func TestExpandWithoutInfo(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)
	plansOf(doc)[2].(map[string]any)["pods"] = "not a list"

	expanded, err := e.Expand(doc, Options{})
	require.NoError(t, err)
	for _, plan := range expanded {
		assert.NotContains(t, plan, "info")
	}
	assert.Equal(t, "beginner", expanded[0]["goodFor"])
	assert.Equal(t, "", expanded[2]["goodFor"])
	assert.Equal(t, true, expanded[0]["publicIP"])
	assert.Equal(t, false, expanded[1]["publicIP"])

	want := []any{map[string]any{
		"name":     nil,
		"kubeType": 2,
		"containers": []any{
			map[string]any{"name": "mysql", "kubes": 1},
			map[string]any{"name": "wordpress", "kubes": 1},
		},
		"persistentDisks": []any{
			map[string]any{"name": "mysql-persistent-storage", "pdSize": 1},
			map[string]any{"name": "wordpress-persistent-storage", "pdSize": 1},
		},
	}}
	if diff := cmp.Diff(want, expanded[2]["pods"]); diff != "" {
		t.Fatalf("pods mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandNormalizesSizes(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)
	pod := plansOf(doc)[0].(map[string]any)["pods"].([]any)[0].(map[string]any)
	pod["containers"].([]any)[0].(map[string]any)["kubes"] = "two"
	pod["persistentDisks"].([]any)[0].(map[string]any)["pdSize"] = 2.5

	plan, err := e.ExpandPlan(doc, 0, Options{WithInfo: true})
	require.NoError(t, err)
	info := plan["info"].(Info)
	assert.Equal(t, 6, info.TotalKubes)
	assert.Equal(t, 4, info.TotalPD)
}

func TestInfoCalculation(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	e.PublicPorts = func(map[string]any) bool { return true }
	pkg, _ := loadCatalog(t).Package(5)

	plan := map[string]any{
		"publicIP": true,
		"pods": []any{map[string]any{
			"kubeType":        2,
			"containers":      []any{map[string]any{"kubes": 2}, map[string]any{"kubes": 5}},
			"persistentDisks": []any{map[string]any{"pdSize": 4}, map[string]any{"pdSize": 3}},
		}},
	}
	info := e.Info(plan, nil, pkg)
	assert.Equal(t, 14.0, info.CPU)
	assert.Equal(t, 700.0, info.Memory)
	assert.Equal(t, 28.0, info.DiskSpace)
	assert.Equal(t, 94.0, info.Price)

	e.PublicPorts = func(map[string]any) bool { return false }
	assert.Equal(t, 84.0, e.Info(plan, nil, pkg).Price)
}

func TestExpandMissingPlans(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)
	delete(doc["kuberdock"].(map[string]any), "appPackages")

	_, err := e.Expand(doc, Options{})
	assert.True(t, apptemplate.IsInvalidTemplate(err))
}

func TestExpandPlanOutOfRange(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)

	_, err := e.ExpandPlan(doc, 3, Options{WithInfo: true})
	require.Error(t, err)
	assert.True(t, IsNoSuchAppPackage(err))
	for _, plan := range plansOf(doc) {
		assert.NotContains(t, plan, "info")
	}
	_, hasGoodFor := plansOf(doc)[2].(map[string]any)["goodFor"]
	assert.False(t, hasGoodFor, "no expansion work for an invalid index")
}

func TestExpandUnsupportedKind(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)
	doc["kind"] = "Service"

	_, err := e.Expand(doc, Options{})
	assert.True(t, apptemplate.IsInvalidTemplate(err))
}

func TestExpandPodKind(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)
	spec := doc["spec"].(map[string]any)["template"].(map[string]any)["spec"]
	doc["kind"] = "Pod"
	doc["spec"] = spec

	expanded, err := e.Expand(doc, Options{WithInfo: true})
	require.NoError(t, err)
	assert.Equal(t, 94.0, expanded[0]["info"].(Info).Price)
}

func TestIndexByName(t *testing.T) {
	list := plansOf(loadDoc(t))

	idx, err := IndexByName(list, "M")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	list = append(list, map[string]any{"name": "Large"})
	_, err = IndexByName(list, "Lrg")
	require.Error(t, err)
	var missing *NoSuchAppPackageError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Lrg", missing.Name)
	assert.Contains(t, missing.Suggestions, "Large")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestPackageResolution(t *testing.T) {
	e := NewExpander(loadCatalog(t))
	doc := loadDoc(t)
	assert.Equal(t, 5, e.Package(doc).ID)

	doc["kuberdock"].(map[string]any)["packageID"] = 99
	assert.Equal(t, 1, e.Package(doc).ID)

	delete(doc["kuberdock"].(map[string]any), "packageID")
	assert.Equal(t, 1, e.Package(doc).ID)
}
