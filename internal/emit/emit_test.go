package emit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/glkit-labs/glkit/internal/item"
)

// failingFS fails Open for one path so read errors can be injected after
// validation has already seen the file.
type failingFS struct {
	billy.Filesystem
	fail string
}

func (f *failingFS) Open(name string) (billy.File, error) {
	if name == f.fail {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrPermission)
	}
	return f.Filesystem.Open(name)
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

// fiveItems returns five rewritten hooks and a source tree holding them.
func fiveItems(t *testing.T) ([]item.Item, billy.Filesystem) {
	t.Helper()
	src := memfs.New()
	names := []string{"use-shader", "double-fbo", "use-defines", "use-double-fbo", "use-portal"}
	items := make([]item.Item, len(names))
	for i, name := range names {
		p := "registry/webgl/hooks/" + name + ".ts"
		writeFile(t, src, p, "export const "+strings.ReplaceAll(name, "-", "_")+" = 1 < 2 && true\n")
		items[i] = item.Item{
			Name:         name,
			Type:         item.KindHook,
			Dependencies: []string{"three", "@react-three/fiber"},
			Files: []item.File{{
				Path:   p,
				Type:   item.KindHook,
				Target: "hooks/" + name + ".ts",
			}},
		}
	}
	items[3].RegistryDependencies = []string{"double-fbo"}
	return items, src
}

func newEmitter(src billy.Filesystem) *Emitter {
	return &Emitter{
		Source:      src,
		Name:        "glkit",
		Homepage:    "https://example.com",
		Concurrency: 2,
	}
}

func TestRenderManifest(t *testing.T) {
	items, src := fiveItems(t)

	out, err := newEmitter(src).Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if out.Manifest.Path != DefaultManifest {
		t.Errorf("manifest path = %q, want %q", out.Manifest.Path, DefaultManifest)
	}

	var m Manifest
	if err := json.Unmarshal(out.Manifest.Data, &m); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if m.Name != "glkit" || m.Homepage != "https://example.com" {
		t.Errorf("metadata = %q %q", m.Name, m.Homepage)
	}

	want := []string{"double-fbo", "use-defines", "use-double-fbo", "use-portal", "use-shader"}
	if len(m.Items) != len(want) {
		t.Fatalf("manifest has %d items, want %d", len(m.Items), len(want))
	}
	for i, name := range want {
		if m.Items[i].Name != name {
			t.Errorf("items[%d] = %q, want %q", i, m.Items[i].Name, name)
		}
	}

	fbo := m.Items[2]
	if fbo.Files[0].Path != "hooks/use-double-fbo.ts" {
		t.Errorf("file path = %q, want rewritten target", fbo.Files[0].Path)
	}
	if len(fbo.RegistryDependencies) != 1 || fbo.RegistryDependencies[0] != "double-fbo" {
		t.Errorf("registryDependencies = %v, want direct edge only", fbo.RegistryDependencies)
	}
	if fbo.Dependencies[0] != "@react-three/fiber" {
		t.Errorf("dependencies not sorted: %v", fbo.Dependencies)
	}
}

func TestRenderItemDocument(t *testing.T) {
	items, src := fiveItems(t)

	out, err := newEmitter(src).Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if len(out.Items) != 5 {
		t.Fatalf("got %d item documents, want 5", len(out.Items))
	}
	doc := out.Items[0]
	if doc.Path != "public/r/double-fbo.json" {
		t.Errorf("path = %q, want public/r/double-fbo.json", doc.Path)
	}

	text := string(doc.Data)
	if !strings.Contains(text, `"content": "export const double_fbo = 1 < 2 && true\n"`) {
		t.Errorf("content should be inlined without HTML escaping:\n%s", text)
	}
	if !strings.HasPrefix(text, "{\n  \"name\": \"double-fbo\",\n") {
		t.Errorf("unexpected layout:\n%s", text)
	}
	if !strings.HasSuffix(text, "}\n") {
		t.Error("document should end with a newline")
	}
}

func TestRenderDeterministic(t *testing.T) {
	items, src := fiveItems(t)
	e := newEmitter(src)

	first, err := e.Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Reverse the input; output must not depend on it.
	reversed := make([]item.Item, len(items))
	for i, it := range items {
		reversed[len(items)-1-i] = it
	}
	second, err := e.Render(context.Background(), reversed)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	a, b := first.Documents(), second.Documents()
	for i := range a {
		if a[i].Path != b[i].Path || string(a[i].Data) != string(b[i].Data) {
			t.Errorf("document %d differs between runs", i)
		}
	}
}

func TestRenderReadFailure(t *testing.T) {
	items, src := fiveItems(t)
	e := newEmitter(&failingFS{Filesystem: src, fail: "registry/webgl/hooks/use-shader.ts"})

	_, err := e.Render(context.Background(), items)

	var readErr *FileReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected *FileReadError, got %v", err)
	}
	if readErr.Item != "use-shader" {
		t.Errorf("Item = %q, want use-shader", readErr.Item)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("error should wrap the cause, got %v", err)
	}
}

func TestRenderCancelled(t *testing.T) {
	items, src := fiveItems(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newEmitter(src).Render(ctx, items); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEmissionIsAtomic(t *testing.T) {
	items, src := fiveItems(t)
	outFS := memfs.New()

	expected, err := newEmitter(src).Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// use-shader sorts last of the five.
	e := newEmitter(&failingFS{Filesystem: src, fail: "registry/webgl/hooks/use-shader.ts"})
	out, err := e.Render(context.Background(), items)
	if err == nil {
		_, err = Publish(outFS, out)
	}
	if err == nil {
		t.Fatal("expected a read failure")
	}

	for _, doc := range expected.Documents() {
		if _, err := outFS.Stat(doc.Path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s should not exist after a failed run (stat err: %v)", doc.Path, err)
		}
	}
}

func TestPublish(t *testing.T) {
	items, src := fiveItems(t)
	outFS := memfs.New()

	out, err := newEmitter(src).Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	res, err := Publish(outFS, out)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(res.Written) != 6 || len(res.Unchanged) != 0 {
		t.Errorf("written=%d unchanged=%d, want 6 and 0", len(res.Written), len(res.Unchanged))
	}

	for _, doc := range out.Documents() {
		got, err := util.ReadFile(outFS, doc.Path)
		if err != nil {
			t.Fatalf("reading %s: %v", doc.Path, err)
		}
		if string(got) != string(doc.Data) {
			t.Errorf("%s content mismatch", doc.Path)
		}
	}

	entries, _ := outFS.ReadDir(".")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), stagingPrefix) {
			t.Errorf("staging directory %s left behind", e.Name())
		}
	}
}

func TestPublishIdempotent(t *testing.T) {
	items, src := fiveItems(t)
	outFS := memfs.New()
	e := newEmitter(src)

	for run := 0; run < 2; run++ {
		out, err := e.Render(context.Background(), items)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		res, err := Publish(outFS, out)
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if run == 1 && (len(res.Written) != 0 || len(res.Unchanged) != 6) {
			t.Errorf("second run: written=%d unchanged=%d, want 0 and 6", len(res.Written), len(res.Unchanged))
		}
	}
}

func TestPublishRewritesChangedOnly(t *testing.T) {
	items, src := fiveItems(t)
	outFS := memfs.New()
	e := newEmitter(src)

	out, err := e.Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := Publish(outFS, out); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	writeFile(t, src, "registry/webgl/hooks/use-portal.ts", "export const changed = true\n")
	out, err = e.Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	res, err := Publish(outFS, out)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(res.Written) != 1 || res.Written[0] != "public/r/use-portal.json" {
		t.Errorf("Written = %v, want only use-portal", res.Written)
	}
}

func TestRenderRejectsInvalidUTF8(t *testing.T) {
	items, src := fiveItems(t)
	writeFile(t, src, "registry/webgl/hooks/use-defines.ts", "const s = \"caf\xe9\"\n")

	out, err := newEmitter(src).Render(context.Background(), items)
	if out != nil {
		t.Errorf("expected no output, got %d documents", len(out.Documents()))
	}

	var readErr *FileReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected *FileReadError, got %v", err)
	}
	if readErr.Item != "use-defines" {
		t.Errorf("Item = %q, want use-defines", readErr.Item)
	}
	if !errors.Is(err, ErrNotUTF8) {
		t.Errorf("error should wrap ErrNotUTF8, got %v", err)
	}
}

func TestRenderKeepsMultibyteContent(t *testing.T) {
	items, src := fiveItems(t)
	writeFile(t, src, "registry/webgl/hooks/use-defines.ts", "const s = \"café ✓\"\n")

	out, err := newEmitter(src).Render(context.Background(), items)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var doc ItemDocument
	for _, d := range out.Items {
		if d.Path == "public/r/use-defines.json" {
			if err := json.Unmarshal(d.Data, &doc); err != nil {
				t.Fatalf("decoding %s: %v", d.Path, err)
			}
		}
	}
	if len(doc.Files) != 1 || doc.Files[0].Content != "const s = \"café ✓\"\n" {
		t.Errorf("content not preserved: %+v", doc.Files)
	}
}

func TestRenderPathConflict(t *testing.T) {
	items, src := fiveItems(t)
	items[0].Name = "registry"

	e := newEmitter(src)
	e.OutDir = "public/r"
	e.Manifest = "public/r/registry.json"

	out, err := e.Render(context.Background(), items)
	if out != nil {
		t.Error("expected no output")
	}

	var conflict *PathConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *PathConflictError, got %v", err)
	}
	if conflict.Path != "public/r/registry.json" {
		t.Errorf("Path = %q, want public/r/registry.json", conflict.Path)
	}
	if !strings.Contains(err.Error(), `item "registry"`) || !strings.Contains(err.Error(), "manifest") {
		t.Errorf("error should name both documents, got %q", err.Error())
	}
}

func TestPublishRejectsDuplicatePaths(t *testing.T) {
	outFS := memfs.New()
	out := &Output{
		Items:    []Document{{Path: "public/r/registry.json", Data: []byte("{\"name\":\"registry\"}\n")}},
		Manifest: Document{Path: "public/r/registry.json", Data: []byte("{\"items\":[]}\n")},
	}

	result, err := Publish(outFS, out)
	if result != nil {
		t.Errorf("expected no result, got %+v", result)
	}
	var conflict *PathConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *PathConflictError, got %v", err)
	}
	if _, err := outFS.Stat("public/r/registry.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("nothing should be written (stat err: %v)", err)
	}
}
