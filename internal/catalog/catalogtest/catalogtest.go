// Package catalogtest provides a small registry fixture for tests in other
// packages: three models across three frameworks with artifacts laid out the
// way a model hub checkout stores them.
package catalogtest

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/openuba/model-hub/internal/catalog"
)

// RegistryJSON is the fixture registry document
//
//go:embed registry.json
var RegistryJSON []byte

// Artifacts holds the fixture artifact files keyed by object path. The
// net-flow-iforest model has no artifacts so its detail page falls back to
// the placeholder.
var Artifacts = map[string]string{
	"models/login_anomaly/model.yaml": "name: login-anomaly\nparameters:\n  contamination: 0.05\n",
	"models/login_anomaly/MODEL.py":   "class Model:\n    def execute(self):\n        return []\n",
	"models/basic_model/model.yaml":   "name: basic-model\n",
	"models/basic_model/MODEL.py":     "class Model:\n    pass\n",
}

// Store parses the fixture registry.
func Store(t testing.TB) *catalog.Store {
	t.Helper()
	s, err := catalog.Parse(RegistryJSON, catalog.FormatJSON)
	if err != nil {
		t.Fatalf("parse fixture registry: %v", err)
	}
	return s
}

// WriteTree writes the fixture registry to registry/models.json under a new
// temp directory together with Artifacts, and returns the directory.
func WriteTree(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{"registry/models.json": string(RegistryJSON)}
	for p, body := range Artifacts {
		files[p] = body
	}
	for p, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
