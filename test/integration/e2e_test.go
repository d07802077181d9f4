//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/glkit-labs/glkit/internal/emit"
	"github.com/glkit-labs/glkit/internal/item"
	"github.com/glkit-labs/glkit/internal/pipeline"
	"github.com/glkit-labs/glkit/internal/registry"
	"github.com/glkit-labs/glkit/internal/scaffold"
	"github.com/glkit-labs/glkit/internal/validate"
)

func TestFullFlowBuild(t *testing.T) {
	env := setupTestEnv(t)

	res, err := pipeline.Run(context.Background(), env.options())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Items != 5 || len(res.Written) != 6 {
		t.Fatalf("items=%d written=%d, want 5 and 6", res.Items, len(res.Written))
	}

	data, err := os.ReadFile(env.path("registry.json"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	var m emit.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}

	var names []string
	for _, it := range m.Items {
		names = append(names, it.Name)
	}
	want := "double-fbo,portal-scene,use-defines,use-double-fbo,use-shader"
	if strings.Join(names, ",") != want {
		t.Errorf("manifest order = %v, want %s", names, want)
	}

	// Direct edges only: portal-scene does not list double-fbo.
	portal := m.Items[1]
	if strings.Join(portal.RegistryDependencies, ",") != "use-double-fbo,use-shader" {
		t.Errorf("portal-scene registryDependencies = %v", portal.RegistryDependencies)
	}
	if portal.Files[0].Path != "components/webgl/portal-scene.tsx" {
		t.Errorf("explicit target not kept: %q", portal.Files[0].Path)
	}

	assertFileContains(t, env.path("public/r/use-shader.json"), `"content": "export function useShader() { return '<shader>' }\n"`)
	assertFileContains(t, env.path("public/r/double-fbo.json"), `"path": "lib/fbo/double-fbo.ts"`)
	assertFileContains(t, env.path("public/r/use-double-fbo.json"), `"path": "hooks/use-double-fbo.ts"`)
}

func TestFullFlowRebuildIsByteIdentical(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := pipeline.Run(context.Background(), env.options()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, err := os.ReadFile(env.path("registry.json"))
	if err != nil {
		t.Fatal(err)
	}

	res, err := pipeline.Run(context.Background(), env.options())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(res.Written) != 0 || len(res.Unchanged) != 6 {
		t.Errorf("written=%v unchanged=%d, want nothing rewritten", res.Written, len(res.Unchanged))
	}

	after, err := os.ReadFile(env.path("registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("manifest changed between identical runs")
	}
}

func TestFullFlowResolveClosure(t *testing.T) {
	env := setupTestEnv(t)

	reg, _, err := pipeline.Load(env.options())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := reg.Resolve("portal-scene")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "double-fbo,use-double-fbo,use-defines,use-shader,portal-scene"
	if strings.Join(res.Closure, ",") != want {
		t.Errorf("closure = %v, want %s", res.Closure, want)
	}
	if strings.Join(res.External, ",") != "@react-three/fiber,three" {
		t.Errorf("external = %v", res.External)
	}
}

func TestFullFlowValidationFailureWritesNothing(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.Remove(env.path("registry/webgl/hooks/use-defines.ts")); err != nil {
		t.Fatal(err)
	}
	env.write(t, "registry/webgl/extra/_registry.yaml", `- name: Bad_Name
  type: registry:hook
  files: []
`)

	_, err := pipeline.Run(context.Background(), env.options())
	if !errors.Is(err, validate.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 3 {
		t.Errorf("expected 3 violations (sourcePath, name, files), got %v", err)
	}

	assertFileNotExists(t, env.path("registry.json"))
	assertFileNotExists(t, env.path("public/r"))
}

func TestFullFlowDuplicateAcrossGroups(t *testing.T) {
	env := setupTestEnv(t)
	env.write(t, "registry/webgl/more/_registry.yaml", `- name: double-fbo
  type: registry:lib
  files:
    - path: registry/webgl/fbo/double-fbo.ts
      type: registry:lib
`)

	_, err := pipeline.Run(context.Background(), env.options())

	var dup *registry.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if dup.First != "registry/webgl/fbo/_registry.json" || dup.Second != "registry/webgl/more/_registry.yaml" {
		t.Errorf("sources = %q, %q", dup.First, dup.Second)
	}
	assertFileNotExists(t, env.path("registry.json"))
}

func TestFullFlowScaffoldThenBuild(t *testing.T) {
	env := setupTestEnv(t)

	result, err := scaffold.Generate(osfs.New(env.Root), scaffold.Options{
		Name:                 "use-ping-pong",
		Kind:                 item.KindHook,
		SourceRoot:           "registry/webgl",
		Dependencies:         []string{"three"},
		RegistryDependencies: []string{"use-double-fbo"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.GroupCreated {
		t.Error("hook should be appended to the existing hooks group")
	}

	res, err := pipeline.Run(context.Background(), env.options())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Items != 6 {
		t.Errorf("Items = %d, want 6", res.Items)
	}

	assertFileExists(t, env.path("public/r/use-ping-pong.json"))
	assertFileContains(t, env.path("public/r/use-ping-pong.json"), "export function usePingPong()")
	assertFileContains(t, env.path("registry.json"), `"name": "use-ping-pong"`)
}
