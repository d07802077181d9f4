package item

import "strings"

// Kind is the closed set of item kinds understood by the installer.
type Kind string

// Kind constants for the type discriminator field.
const (
	KindComponent Kind = "registry:component"
	KindHook      Kind = "registry:hook"
	KindLib       Kind = "registry:lib"
)

// ValidKinds contains all valid item kinds.
var ValidKinds = []Kind{
	KindComponent,
	KindHook,
	KindLib,
}

// Valid reports whether k is one of ValidKinds.
func (k Kind) Valid() bool {
	for _, v := range ValidKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Dir returns the installer directory for the kind.
// "registry:hook" -> "hooks", "registry:lib" -> "lib"
func (k Kind) Dir() string {
	switch k {
	case KindComponent:
		return "components"
	case KindHook:
		return "hooks"
	case KindLib:
		return "lib"
	default:
		return ""
	}
}

// Short returns the kind without its "registry:" prefix.
func (k Kind) Short() string {
	return strings.TrimPrefix(string(k), "registry:")
}

// ParseKind accepts either the wire value ("registry:hook") or its short
// form ("hook") and returns the wire value.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	if !strings.HasPrefix(s, "registry:") {
		k = Kind("registry:" + s)
	}
	return k, k.Valid()
}

// File describes one member file of an item.
type File struct {
	Path   string `yaml:"path" json:"path"`
	Type   Kind   `yaml:"type" json:"type"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}

// Item is one distributable registry entry as authored in a group file.
type Item struct {
	Name                 string   `yaml:"name" json:"name"`
	Type                 Kind     `yaml:"type" json:"type"`
	Description          string   `yaml:"description,omitempty" json:"description,omitempty"`
	Dependencies         []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	RegistryDependencies []string `yaml:"registryDependencies,omitempty" json:"registryDependencies,omitempty"`
	Files                []File   `yaml:"files" json:"files"`
}

// Clone returns a deep copy of the item so derived stages never share
// slices with the declaration they were built from.
func (it Item) Clone() Item {
	out := it
	out.Dependencies = append([]string(nil), it.Dependencies...)
	out.RegistryDependencies = append([]string(nil), it.RegistryDependencies...)
	out.Files = append([]File(nil), it.Files...)
	return out
}

// Group is an ordered list of items declared in one group file.
type Group struct {
	Source string // path of the group file, used in error messages
	Items  []Item
}
