package emit

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/glkit-labs/glkit/internal/item"
)

// Manifest is the aggregate document. Items carry direct dependency edges
// only; consumers walk the graph themselves.
type Manifest struct {
	Name     string         `json:"name"`
	Homepage string         `json:"homepage"`
	Items    []ManifestItem `json:"items"`
}

// ManifestItem is one entry of the aggregate manifest.
type ManifestItem struct {
	Name                 string    `json:"name"`
	Type                 item.Kind `json:"type"`
	Description          string    `json:"description,omitempty"`
	Dependencies         []string  `json:"dependencies,omitempty"`
	RegistryDependencies []string  `json:"registryDependencies,omitempty"`
	Files                []FileRef `json:"files"`
}

// FileRef points at a member file by its installer path.
type FileRef struct {
	Path string    `json:"path"`
	Type item.Kind `json:"type"`
}

// ItemDocument is the self-contained per-item document.
type ItemDocument struct {
	Name                 string        `json:"name"`
	Type                 item.Kind     `json:"type"`
	Description          string        `json:"description,omitempty"`
	Dependencies         []string      `json:"dependencies,omitempty"`
	RegistryDependencies []string      `json:"registryDependencies,omitempty"`
	Files                []FileContent `json:"files"`
}

// FileContent is a member file with its literal source text.
type FileContent struct {
	Path    string    `json:"path"`
	Type    item.Kind `json:"type"`
	Content string    `json:"content"`
}

// Document is one rendered output file.
type Document struct {
	Path string
	Data []byte
}

// Output is everything a run produces.
type Output struct {
	Manifest Document
	Items    []Document
}

// Documents returns the per-item documents followed by the manifest.
func (o *Output) Documents() []Document {
	docs := make([]Document, 0, len(o.Items)+1)
	docs = append(docs, o.Items...)
	return append(docs, o.Manifest)
}

func manifestItem(it item.Item) ManifestItem {
	files := make([]FileRef, len(it.Files))
	for i, f := range it.Files {
		files[i] = FileRef{Path: targetOf(f), Type: f.Type}
	}
	return ManifestItem{
		Name:                 it.Name,
		Type:                 it.Type,
		Description:          it.Description,
		Dependencies:         sorted(it.Dependencies),
		RegistryDependencies: sorted(it.RegistryDependencies),
		Files:                files,
	}
}

func targetOf(f item.File) string {
	if f.Target != "" {
		return f.Target
	}
	return f.Path
}

func sorted(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}

// marshal encodes v with two-space indentation and a trailing newline.
// Source text routinely contains <, > and &, so HTML escaping is off.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
