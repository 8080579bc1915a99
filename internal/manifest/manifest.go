// Package manifest holds a static snapshot of a Python runtime's import
// namespace and resolves dotted names against it.
//
// Names are checked against the snapshot instead of a live interpreter, so
// the catalog can be validated on any machine.
package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

//go:embed python27.yaml
var python27 []byte

var (
	ErrUnresolved = errors.New("unresolved import")
	ErrNotPython2 = errors.New("snapshot is not a Python 2 runtime")
)

// python2 constrains the optional version of a snapshot.
var python2 = version.MustConstraints(version.NewConstraint(">= 2.0, < 3.0"))

// Manifest is the decoded snapshot. Use Load, LoadFile or Default to build one.
type Manifest struct {
	Runtime      string              `yaml:"runtime"`
	Version      string              `yaml:"version,omitempty"`
	PlatformGaps []string            `yaml:"platform_gaps"`
	Builtins     []string            `yaml:"builtins"`
	Modules      map[string][]string `yaml:"modules"`

	builtins map[string]struct{}
	gaps     map[string]struct{}
	symbols  map[string]map[string]struct{}
}

var defaultManifest = sync.OnceValues(func() (*Manifest, error) {
	return Parse(python27)
})

// Default returns the bundled Python 2.7 snapshot.
func Default() (*Manifest, error) {
	return defaultManifest()
}

func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return m, nil
}

func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if len(m.Modules) == 0 {
		return nil, errors.New("manifest lists no modules")
	}
	if m.Version != "" {
		v, err := version.NewVersion(m.Version)
		if err != nil {
			return nil, fmt.Errorf("manifest version: %w", err)
		}
		if !python2.Check(v) {
			return nil, fmt.Errorf("%w: %s", ErrNotPython2, m.Version)
		}
	}
	m.index()
	return &m, nil
}

func (m *Manifest) index() {
	m.builtins = toSet(m.Builtins)
	m.gaps = toSet(m.PlatformGaps)
	m.symbols = make(map[string]map[string]struct{}, len(m.Modules))
	for module, names := range m.Modules {
		m.symbols[module] = toSet(names)
	}
}

// Resolve reports whether path is importable. A single segment must be a
// module; for a longer path the parent must be a module that exports the
// last segment, either as a name or as a submodule.
func (m *Manifest) Resolve(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty name", ErrUnresolved)
	}

	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		if _, ok := m.symbols[path]; !ok {
			return fmt.Errorf("%w: no module named %s", ErrUnresolved, path)
		}
		return nil
	}

	parent, leaf := path[:i], path[i+1:]
	names, ok := m.symbols[parent]
	if !ok {
		return fmt.Errorf("%w: no module named %s", ErrUnresolved, parent)
	}
	if _, ok := names[leaf]; ok {
		return nil
	}
	if _, ok := m.symbols[path]; ok {
		return nil
	}
	return fmt.Errorf("%w: cannot import name %s from %s", ErrUnresolved, leaf, parent)
}

func (m *Manifest) IsBuiltin(name string) bool {
	_, ok := m.builtins[name]
	return ok
}

// Tolerated reports whether name is a known platform gap: a module that is
// valid on some builds but absent from the snapshot.
func (m *Manifest) Tolerated(name string) bool {
	_, ok := m.gaps[name]
	return ok
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
