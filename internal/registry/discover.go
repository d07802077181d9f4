package registry

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// groupFileNames is the priority order for group files in one directory.
var groupFileNames = []string{"_registry.yaml", "_registry.yml", "_registry.json"}

// DiscoverGroups walks root and returns the group file of every directory
// that has one, sorted by path. When a directory holds more than one group
// file only the highest-priority name is used.
func DiscoverGroups(fs billy.Filesystem, root string) ([]string, error) {
	if _, err := fs.Stat(root); err != nil {
		return nil, fmt.Errorf("source root %s: %w", root, err)
	}

	byDir := make(map[string]string)
	err := util.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rank := groupFileRank(info.Name())
		if rank < 0 {
			return nil
		}

		p = filepath.ToSlash(p)
		dir := path.Dir(p)
		if existing, ok := byDir[dir]; ok && groupFileRank(path.Base(existing)) <= rank {
			return nil
		}
		byDir[dir] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	paths := make([]string, 0, len(byDir))
	for _, p := range byDir {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// groupFileRank returns the priority of a group file name, or -1.
func groupFileRank(name string) int {
	for i, n := range groupFileNames {
		if name == n {
			return i
		}
	}
	return -1
}
