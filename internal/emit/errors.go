package emit

import (
	"errors"
	"fmt"
)

// FileReadError reports a member file that could not be read during
// rendering.
type FileReadError struct {
	Item string
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("item %q: reading %s: %v", e.Item, e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// PublishError reports a failure while moving staged documents into place.
type PublishError struct {
	Path string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing %s: %v", e.Path, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// ErrNotUTF8 is wrapped by a *FileReadError for a member file whose bytes
// are not valid UTF-8. Such content cannot be inlined in a JSON document
// without being altered.
var ErrNotUTF8 = errors.New("content is not valid UTF-8")

// PathConflictError reports two documents rendered to the same output path,
// for example an item named like the manifest file in the same directory.
type PathConflictError struct {
	Path   string
	First  string
	Second string
}

func (e *PathConflictError) Error() string {
	if e.First == "" {
		return fmt.Sprintf("two documents share output path %s", e.Path)
	}
	return fmt.Sprintf("%s and %s both render to %s", e.First, e.Second, e.Path)
}
