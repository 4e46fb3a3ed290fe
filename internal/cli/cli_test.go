package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/logging"
)

const templateFile = "testdata/wordpress.yaml"

type runner struct {
	t      *testing.T
	store  string
	config string
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	for _, key := range []string{"KDAPPS_CONFIG", "KDAPPS_STORE", "KDAPPS_OWNER", "KDAPPS_CATALOG", "KDAPPS_LOG_LEVEL", "KDAPPS_VARS", "KDAPPS_VAR_FILE", "KDAPPS_APP"} {
		t.Setenv(key, "")
	}
	config := filepath.Join(t.TempDir(), "kdapps.yaml")
	require.NoError(t, os.WriteFile(config, []byte("logLevel: debug\n"), 0o644))
	return &runner{t: t, store: t.TempDir(), config: config}
}

func (r *runner) run(args ...string) (string, error) {
	r.t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&Options{}, logging.Discard())
	cmd.SetArgs(append([]string{"--store", r.store, "--config", r.config}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFieldsJSON(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("fields", "--file", templateFile, "-o", "json")
	require.NoError(t, err)
	var fields []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	require.Len(t, fields, 6)
	assert.Equal(t, "APP_NAME", fields[0]["name"])
	assert.Equal(t, "wordpress", fields[0]["default"])
	assert.Equal(t, true, fields[3]["hidden"])
}

func TestFieldsTable(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("fields", "--file", templateFile)
	require.NoError(t, err)
	assert.Contains(t, out, "MYSQL_PD_SIZE")
	assert.Contains(t, out, "(generated)")
}

func TestPlans(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("plans", "--file", templateFile, "-o", "yaml")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "S", list[0]["name"])
	assert.Contains(t, list[0], "info")

	out, err = r.run("plans", "--file", templateFile, "--only", "M")
	require.NoError(t, err)
	assert.Contains(t, out, "M *")
	assert.NotContains(t, out, "beginner")

	_, err = r.run("plans", "--file", templateFile, "-o", "xml")
	assert.Error(t, err)
}

func renderDoc(t *testing.T, out string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	return doc
}

func TestRender(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("render", "--file", templateFile, "--plan-name", "S", "--vars", "APP_NAME=blog,WP_KUBES=3")
	require.NoError(t, err)
	doc := renderDoc(t, out)
	assert.Equal(t, "blog", doc["metadata"].(map[string]any)["name"])
	kd := doc["kuberdock"].(map[string]any)
	assert.Equal(t, "S", kd["appPackage"].(map[string]any)["name"])
	assert.Equal(t, "wordpress", kd["kuberdock_template_id"])
	assert.Equal(t, 3, doc["appVariables"].(map[string]any)["WP_KUBES"])
}

func TestRenderKeepsTemplateKeyOrder(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("render", "--file", templateFile, "--plan-name", "S")
	require.NoError(t, err)

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(out), &node))
	root := node.Content[0]
	var keys []string
	for i := 0; i < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}
	assert.Equal(t, []string{"apiVersion", "kind", "metadata", "kuberdock", "spec", "appVariables"}, keys)
	assert.Less(t, strings.Index(out, "image: mysql:5.7"), strings.Index(out, "env:"))
}

func TestRenderRecommendedPlan(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("render", "--file", templateFile)
	require.NoError(t, err)
	kd := renderDoc(t, out)["kuberdock"].(map[string]any)
	assert.Equal(t, "M", kd["appPackage"].(map[string]any)["name"])
}

func TestRenderVarFileAndOutputDir(t *testing.T) {
	r := newRunner(t)
	dir := t.TempDir()
	varFile := filepath.Join(dir, "values.yaml")
	require.NoError(t, os.WriteFile(varFile, []byte("APP_NAME: shop\nMYSQL_PD_SIZE: 9\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	_, err := r.run("render", "--file", templateFile, "--plan", "0", "--var-file", varFile, "--vars", "APP_NAME=blog", "--output", outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "wordpress-0.yaml"))
	require.NoError(t, err)
	vars := renderDoc(t, string(data))["appVariables"].(map[string]any)
	assert.Equal(t, "blog", vars["APP_NAME"], "inline values override the var file")
	assert.Equal(t, 9, vars["MYSQL_PD_SIZE"])
}

func TestRenderMissingPlan(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("render", "--file", templateFile, "--plan", "5")
	require.Error(t, err)
	_, err = r.run("render", "--file", templateFile, "--plan-name", "XL")
	require.Error(t, err)
	_, err = r.run("render")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("validate", "--file", templateFile)
	require.NoError(t, err)
	assert.Contains(t, out, `"wordpress" is valid`)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("kind: Pod\nmetadata:\n  name: $NAME$\n"), 0o644))
	_, err = r.run("validate", "--file", broken)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("render", "--file", templateFile, "--plan-name", "S")
	require.NoError(t, err)
	pod := filepath.Join(t.TempDir(), "pod.yaml")
	require.NoError(t, os.WriteFile(pod, []byte(out), 0o644))

	out, err = r.run("check", "--file", templateFile, "--pod", pod)
	require.NoError(t, err)
	assert.Contains(t, out, "matches")

	data, err := os.ReadFile(pod)
	require.NoError(t, err)
	require.Contains(t, string(data), "mysql:5.7")
	modified := strings.Replace(string(data), "mysql:5.7", "mysql:8", 1)
	require.NoError(t, os.WriteFile(pod, []byte(modified), 0o644))
	out, err = r.run("check", "--file", templateFile, "--pod", pod, "--diff")
	require.Error(t, err)
	assert.Contains(t, out, "mysql:8")
}

func TestStoreCommands(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("save", "--file", templateFile, "--id", "blog", "--name", "Blog")
	require.NoError(t, err)

	out, err := r.run("list", "-o", "json")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "blog", items[0]["id"])
	assert.Equal(t, "Blog", items[0]["name"])

	out, err = r.run("render", "--app", "blog", "--plan-name", "S")
	require.NoError(t, err)
	kd := renderDoc(t, out)["kuberdock"].(map[string]any)
	assert.Equal(t, "blog", kd["kuberdock_template_id"])

	_, err = r.run("render", "--app", "blog", "--file", templateFile)
	assert.Error(t, err)

	require.NoError(t, func() error { _, err := r.run("delete", "--id", "blog"); return err }())
	_, err = r.run("render", "--app", "blog")
	assert.Error(t, err)
	_, err = r.run("delete", "--id", "blog")
	assert.Error(t, err)
}

func TestSaveRejectsInvalidTemplate(t *testing.T) {
	r := newRunner(t)
	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("kind: Pod\nspec: $X$\n"), 0o644))
	_, err := r.run("save", "--file", broken)
	assert.Error(t, err)

	out, err := r.run("list", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}
