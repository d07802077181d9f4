package emit

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const stagingPrefix = ".glkit-staging-"

// PublishResult summarizes a publish.
type PublishResult struct {
	Written   []string
	Unchanged []string
}

// Publish writes out to fs all-or-nothing. Documents whose bytes match the
// existing file are skipped. Changed documents are staged in a temporary
// directory and then renamed into place; if a rename fails the documents
// already moved are restored to their previous content. Two documents
// with the same path fail with a *PathConflictError before anything is
// written.
func Publish(fs billy.Filesystem, out *Output) (*PublishResult, error) {
	result := &PublishResult{}

	type pending struct {
		doc      Document
		previous []byte // nil when the file did not exist
		staged   string
	}
	var changed []*pending

	docs := out.Documents()
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.Path] {
			return nil, &PathConflictError{Path: doc.Path}
		}
		seen[doc.Path] = true
	}

	for _, doc := range docs {
		existing, err := util.ReadFile(fs, doc.Path)
		switch {
		case err == nil:
			if xxhash.Sum64(existing) == xxhash.Sum64(doc.Data) {
				result.Unchanged = append(result.Unchanged, doc.Path)
				continue
			}
		case errors.Is(err, os.ErrNotExist):
			existing = nil
		default:
			return nil, fmt.Errorf("reading %s: %w", doc.Path, err)
		}
		changed = append(changed, &pending{doc: doc, previous: existing})
	}

	if len(changed) == 0 {
		return result, nil
	}

	staging, err := util.TempDir(fs, ".", stagingPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer util.RemoveAll(fs, staging) //nolint:errcheck // best effort cleanup

	for i, p := range changed {
		p.staged = path.Join(staging, fmt.Sprintf("%04d.json", i))
		if err := util.WriteFile(fs, p.staged, p.doc.Data, 0o644); err != nil {
			return nil, fmt.Errorf("staging %s: %w", p.doc.Path, err)
		}
	}

	for i, p := range changed {
		if err := moveInto(fs, p.staged, p.doc.Path); err != nil {
			for _, done := range changed[:i] {
				restore(fs, done.doc.Path, done.previous)
			}
			return nil, &PublishError{Path: p.doc.Path, Err: err}
		}
		result.Written = append(result.Written, p.doc.Path)
	}

	return result, nil
}

func moveInto(fs billy.Filesystem, from, to string) error {
	if dir := path.Dir(to); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return fs.Rename(from, to)
}

func restore(fs billy.Filesystem, name string, previous []byte) {
	if previous == nil {
		_ = fs.Remove(name)
		return
	}
	_ = util.WriteFile(fs, name, previous, 0o644)
}
