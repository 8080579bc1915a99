// Package nolint finds flake8 style "# noqa" suppressions in Python sources.
package nolint

import (
	"go/token"
	"regexp"
	"strings"
)

var (
	noqaComment = regexp.MustCompile(`(?i)#\s*noqa(?::\s*([\w-]+(?:[\s,]+[\w-]+)*))?`)
	fileNoqa    = regexp.MustCompile(`(?i)^\s*#\s*flake8[:=]\s*noqa\s*$`)
)

// Manager manages noqa scopes and checks if a position is suppressed.
type Manager struct {
	// scopes maps filename to the noqa comments found in it.
	scopes map[string][]nolintScope
}

// nolintScope is a single suppressed line, or the whole file when line is 0.
type nolintScope struct {
	rules map[string]struct{}
	line  int
}

func NewManager() *Manager {
	return &Manager{scopes: make(map[string][]nolintScope)}
}

// ParseComments records the noqa comments of one file.
func ParseComments(filename string, lines []string) *Manager {
	m := NewManager()
	m.Add(filename, lines)
	return m
}

// Add records the noqa comments of filename, replacing earlier ones.
func (m *Manager) Add(filename string, lines []string) {
	var scopes []nolintScope
	for i, line := range lines {
		if fileNoqa.MatchString(line) {
			scopes = append(scopes, nolintScope{line: 0})
			continue
		}
		match := noqaComment.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		scopes = append(scopes, nolintScope{
			rules: parseIgnoreRuleNames(match[1]),
			line:  i + 1,
		})
	}
	m.scopes[filename] = scopes
}

// parseIgnoreRuleNames parses the code list after "noqa:".
func parseIgnoreRuleNames(text string) map[string]struct{} {
	rulesMap := make(map[string]struct{})
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	for _, rule := range fields {
		rulesMap[rule] = struct{}{}
	}
	return rulesMap
}

// IsNolint reports whether pos is suppressed for any of the given rule names.
// A bare "# noqa" suppresses every rule.
func (m *Manager) IsNolint(pos token.Position, ruleNames ...string) bool {
	for _, ns := range m.scopes[pos.Filename] {
		if ns.line != 0 && ns.line != pos.Line {
			continue
		}
		if len(ns.rules) == 0 {
			return true
		}
		for _, name := range ruleNames {
			if _, ok := ns.rules[name]; ok {
				return true
			}
		}
	}
	return false
}
