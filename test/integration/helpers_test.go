//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/glkit-labs/glkit/internal/pipeline"
)

// testEnv holds paths of one isolated workspace.
type testEnv struct {
	Root string // workspace root; the source and output filesystems are rooted here
}

// setupTestEnv creates an isolated workspace with a small WebGL registry:
// two hooks, a lib and a component spread over three group files.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{Root: t.TempDir()}

	// --- Hooks ---
	env.write(t, "registry/webgl/hooks/_registry.yaml", `- name: use-shader
  type: registry:hook
  description: Compiles a shader material with injected defines
  dependencies: [three, "@react-three/fiber"]
  registryDependencies: [use-defines]
  files:
    - path: registry/webgl/hooks/use-shader.ts
      type: registry:hook
- name: use-defines
  type: registry:hook
  dependencies: [three]
  files:
    - path: registry/webgl/hooks/use-defines.ts
      type: registry:hook
- name: use-double-fbo
  type: registry:hook
  dependencies: [three, "@react-three/fiber"]
  registryDependencies: [double-fbo]
  files:
    - path: registry/webgl/hooks/use-double-fbo.ts
      type: registry:hook
`)
	env.write(t, "registry/webgl/hooks/use-shader.ts", "export function useShader() { return '<shader>' }\n")
	env.write(t, "registry/webgl/hooks/use-defines.ts", "export function useDefines() {}\n")
	env.write(t, "registry/webgl/hooks/use-double-fbo.ts", "export function useDoubleFbo() {}\n")

	// --- Lib ---
	env.write(t, "registry/webgl/fbo/_registry.json", `[
  {
    "name": "double-fbo",
    "type": "registry:lib",
    "dependencies": ["three"],
    "files": [{"path": "registry/webgl/fbo/double-fbo.ts", "type": "registry:lib"}]
  }
]
`)
	env.write(t, "registry/webgl/fbo/double-fbo.ts", "export class DoubleFBO {}\n")

	// --- Component ---
	env.write(t, "registry/webgl/components/_registry.yaml", `- name: portal-scene
  type: registry:component
  registryDependencies: [use-double-fbo, use-shader]
  files:
    - path: registry/webgl/components/portal-scene.tsx
      type: registry:component
      target: components/webgl/portal-scene.tsx
`)
	env.write(t, "registry/webgl/components/portal-scene.tsx", "export function PortalScene() { return <mesh /> }\n")

	return env
}

// options returns pipeline options rooted at the workspace.
func (e *testEnv) options() pipeline.Options {
	fs := osfs.New(e.Root)
	return pipeline.Options{
		SourceFS: fs,
		OutFS:    fs,
		Name:     "glkit",
		Homepage: "https://glkit.dev",
	}
}

func (e *testEnv) path(rel string) string {
	return filepath.Join(e.Root, filepath.FromSlash(rel))
}

// write creates a file relative to the workspace root.
func (e *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	writeFile(t, e.path(rel), content)
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
