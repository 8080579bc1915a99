// Package catalog assembles the list of banned Python 2 imports from the
// six.moves table and the bundled supplementary list.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/banimports/internal/table"
	tt "github.com/gnolang/banimports/internal/types"
)

//go:embed supplement.yaml
var supplementYAML []byte

var (
	ErrNotBuiltin     = errors.New("not a builtin")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Row prefixes that are not turned into entries. "See " rows point at the
// six.moves.urllib submodules, which the relocations cover name by name, and
// ConfigParser is listed in the supplement.
var skippedPrefixes = []string{"See ", "ConfigParser"}

const sixMoves = "six.moves"

// Resolver looks dotted names up in a runtime namespace.
type Resolver interface {
	Resolve(path string) error
	IsBuiltin(name string) bool
	Tolerated(name string) bool
}

// Relocation moves every listed old name to Target, keeping the last segment.
type Relocation struct {
	Target string   `yaml:"target"`
	Names  []string `yaml:"names"`
}

// Supplement is the hand-maintained part of the catalog.
type Supplement struct {
	Relocations []Relocation `yaml:"relocations"`
	Entries     []tt.Entry   `yaml:"entries"`
}

// DefaultSupplement decodes the bundled supplement.
func DefaultSupplement() (*Supplement, error) {
	return ParseSupplement(supplementYAML)
}

func LoadSupplementFile(path string) (*Supplement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening supplement: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading supplement %s: %w", path, err)
	}
	s, err := ParseSupplement(data)
	if err != nil {
		return nil, fmt.Errorf("reading supplement %s: %w", path, err)
	}
	return s, nil
}

func ParseSupplement(data []byte) (*Supplement, error) {
	var s Supplement
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding supplement: %w", err)
	}
	return &s, nil
}

// Build merges table rows and the supplement into a sorted, validated list.
// Any unresolvable name, malformed entry or duplicate aborts the build.
func Build(rows []table.Row, supplement *Supplement, resolver Resolver, logger *zap.Logger) ([]tt.Entry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := FromTable(rows, resolver, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded table entries", zap.Int("count", len(entries)))

	if supplement != nil {
		relocated, err := relocate(supplement.Relocations, resolver)
		if err != nil {
			return nil, err
		}
		entries = append(entries, relocated...)
		entries = append(entries, supplement.Entries...)
	}

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}

	if err := Sort(entries); err != nil {
		return nil, err
	}
	logger.Debug("catalog built", zap.Int("entries", len(entries)))

	return entries, nil
}

// FromTable turns six.moves rows into drop-in entries pointing at six.moves.
func FromTable(rows []table.Row, resolver Resolver, logger *zap.Logger) ([]tt.Entry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var entries []tt.Entry
	for _, row := range uniquify(rows) {
		oldName := strings.TrimSpace(row.Python2())
		if hasSkippedPrefix(oldName) {
			continue
		}

		parts := strings.Split(oldName, ".")
		last := len(parts) - 1
		if strings.HasSuffix(parts[last], "()") {
			parts[last] = strings.TrimRight(parts[last], "()")
			if len(parts) == 1 {
				// builtins are never imported, so there is nothing to ban
				if !resolver.IsBuiltin(parts[0]) {
					return nil, fmt.Errorf("%w: %s", ErrNotBuiltin, parts[0])
				}
				continue
			}
		}

		banned := strings.Join(parts, ".")
		if err := resolver.Resolve(banned); err != nil {
			if len(parts) > 1 || !resolver.Tolerated(banned) {
				return nil, err
			}
			logger.Debug("tolerating platform specific module", zap.String("module", banned), zap.Error(err))
		}

		target := sixMoves + "." + strings.TrimSpace(row.Name())
		if err := resolver.Resolve(target); err != nil {
			return nil, err
		}

		entries = append(entries, tt.DropIn(banned, target))
	}

	return entries, nil
}

func relocate(relocations []Relocation, resolver Resolver) ([]tt.Entry, error) {
	var entries []tt.Entry
	for _, r := range relocations {
		for _, movedFrom := range r.Names {
			if err := resolver.Resolve(movedFrom); err != nil {
				return nil, err
			}
			name := movedFrom[strings.LastIndexByte(movedFrom, '.')+1:]
			movedTo := r.Target + "." + name
			if err := resolver.Resolve(movedTo); err != nil {
				return nil, err
			}
			entries = append(entries, tt.DropIn(movedFrom, movedTo))
		}
	}
	return entries, nil
}

// uniquify sorts rows by their Python 2 name and keeps the first row for
// each name. The table lists robotparser twice.
func uniquify(rows []table.Row) []table.Row {
	sorted := make([]table.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Python2()) < strings.ToLower(sorted[j].Python2())
	})

	seen := make(map[string]bool, len(sorted))
	unique := sorted[:0]
	for _, row := range sorted {
		if seen[row.Python2()] {
			continue
		}
		seen[row.Python2()] = true
		unique = append(unique, row)
	}
	return unique
}

func hasSkippedPrefix(name string) bool {
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Key is the case-insensitive sort and uniqueness key of an entry.
func Key(e tt.Entry) string {
	return strings.ToLower(e.OldName)
}

// Sort orders entries by Key and fails if two entries share a key.
func Sort(entries []tt.Entry) error {
	sort.SliceStable(entries, func(i, j int) bool {
		return Key(entries[i]) < Key(entries[j])
	})

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[Key(e)] = struct{}{}
	}
	if len(seen) == len(entries) {
		return nil
	}

	for i := 1; i < len(entries); i++ {
		if Key(entries[i]) == Key(entries[i-1]) {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateEntry, entries[i-1].OldName, entries[i].OldName)
		}
	}
	return ErrDuplicateEntry
}
