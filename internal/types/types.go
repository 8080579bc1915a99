package types

import (
	"errors"
	"fmt"
	"go/token"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidEntry       = errors.New("invalid entry")
	ErrInvalidName        = errors.New("invalid dotted name")
	ErrExactWithoutTarget = errors.New("exact entry without replacement")
)

var dottedName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Kind classifies how an entry is rendered.
type Kind int

const (
	// KindRemoved is a module or symbol with no replacement.
	KindRemoved Kind = iota
	// KindMoved has a suggested replacement that is not guaranteed to behave the same.
	KindMoved
	// KindDropIn has a replacement verified to be a drop-in substitute.
	KindDropIn
)

func (k Kind) String() string {
	switch k {
	case KindRemoved:
		return "removed"
	case KindMoved:
		return "moved"
	case KindDropIn:
		return "drop-in"
	default:
		return "unknown"
	}
}

// Entry describes one banned Python 2 import.
type Entry struct {
	OldName string
	NewName string
	Exact   bool
}

func Removed(oldName string) Entry {
	return Entry{OldName: oldName}
}

func Moved(oldName, newName string) Entry {
	return Entry{OldName: oldName, NewName: newName}
}

func DropIn(oldName, newName string) Entry {
	return Entry{OldName: oldName, NewName: newName, Exact: true}
}

func (e Entry) Kind() Kind {
	switch {
	case e.NewName == "":
		return KindRemoved
	case e.Exact:
		return KindDropIn
	default:
		return KindMoved
	}
}

// Message is the text a linter shows for an import of e.OldName.
func (e Entry) Message() string {
	switch e.Kind() {
	case KindRemoved:
		return fmt.Sprintf("%s is removed in Python 3.", e.OldName)
	case KindMoved:
		return fmt.Sprintf("%s is moved in Python 3. Use %s instead", e.OldName, e.NewName)
	default:
		return fmt.Sprintf("%s is moved in Python3. %s can be used as a drop-in replacement.", e.OldName, e.NewName)
	}
}

// Validate checks the entry invariants: a well-formed old name, and a
// replacement whenever the entry claims to be exact.
func (e Entry) Validate() error {
	if !dottedName.MatchString(e.OldName) {
		return fmt.Errorf("%w: %q", ErrInvalidName, e.OldName)
	}
	if e.Exact && e.NewName == "" {
		return fmt.Errorf("%w: %s", ErrExactWithoutTarget, e.OldName)
	}
	return nil
}

// UnmarshalYAML accepts the three supplementary forms:
//
//	- Bastion                    # removed
//	- [UserDict, dict]           # moved
//	- [md5.md5, hashlib.md5, true] # drop-in
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*e = Removed(node.Value)
		return nil
	case yaml.SequenceNode:
	default:
		return fmt.Errorf("%w at line %d: expected a name or a list", ErrInvalidEntry, node.Line)
	}

	parts := node.Content
	for i, part := range parts {
		if part.Kind != yaml.ScalarNode || part.Tag == "!!null" || part.Value == "" {
			return fmt.Errorf("%w at line %d: element %d is empty or not a scalar", ErrInvalidEntry, node.Line, i+1)
		}
	}
	switch len(parts) {
	case 2:
		*e = Moved(parts[0].Value, parts[1].Value)
	case 3:
		var exact bool
		if err := parts[2].Decode(&exact); err != nil {
			return fmt.Errorf("%w at line %d: %v", ErrInvalidEntry, node.Line, err)
		}
		if !exact {
			return fmt.Errorf("%w at line %d: exact flag must be true when present", ErrInvalidEntry, node.Line)
		}
		*e = DropIn(parts[0].Value, parts[1].Value)
	default:
		return fmt.Errorf("%w at line %d: expected 2 or 3 elements, got %d", ErrInvalidEntry, node.Line, len(parts))
	}
	return nil
}

// Severity of a reported issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Issue represents a banned import found in a Python source file.
type Issue struct {
	Rule       string
	Category   string
	Filename   string
	Message    string
	Suggestion string
	Note       string
	Start      token.Position
	End        token.Position
	Severity   Severity
}
