package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnolang/banimports/internal/checker"
	"github.com/gnolang/banimports/internal/nolint"
	tt "github.com/gnolang/banimports/internal/types"
)

// Engine manages the checking process.
type Engine struct {
	checker      *checker.BannedImportChecker
	ignoredRules map[string]bool
	ignoredPaths []string
}

// NewEngine creates an engine banning every entry.
func NewEngine(entries []tt.Entry) *Engine {
	c := checker.NewBannedImportChecker()
	for _, e := range entries {
		c.Register(e)
	}
	return &Engine{checker: c}
}

// Run checks the given file and returns a slice of Issues.
// Engine is not modified by Run, so it is safe to call from several goroutines.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	if e.isIgnoredPath(filename) {
		return nil, nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return e.run(filename, content)
}

// RunSource checks source that has no file behind it.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	return e.run("", source)
}

func (e *Engine) run(filename string, source []byte) ([]tt.Issue, error) {
	if e.ignoredRules[checker.RuleName] {
		return nil, nil
	}

	found, err := e.checker.Check(filename, source)
	if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", filename, err)
	}
	if len(found) == 0 {
		return nil, nil
	}

	nolintMgr := nolint.ParseComments(filename, strings.Split(string(source), "\n"))

	issues := make([]tt.Issue, 0, len(found))
	for _, b := range found {
		if nolintMgr.IsNolint(b.Start, checker.RuleName, checker.Code) {
			continue
		}
		issues = append(issues, newIssue(filename, b))
	}
	return issues, nil
}

func newIssue(filename string, b checker.BannedImport) tt.Issue {
	issue := tt.Issue{
		Rule:       checker.RuleName,
		Category:   b.Entry.Kind().String(),
		Filename:   filename,
		Message:    b.Entry.Message(),
		Suggestion: b.Suggestion(),
		Start:      b.Start,
		End:        b.End,
		Severity:   tt.SeverityWarning,
	}
	switch b.Entry.Kind() {
	case tt.KindRemoved:
		issue.Severity = tt.SeverityError
	case tt.KindMoved:
		issue.Note = fmt.Sprintf("%s does not behave exactly like %s, review the call sites", b.Entry.NewName, b.Entry.OldName)
	}
	return issue
}

func (e *Engine) IgnoreRule(rule string) {
	if e.ignoredRules == nil {
		e.ignoredRules = make(map[string]bool)
	}
	e.ignoredRules[rule] = true
}

// IgnorePath skips files matching the glob pattern, tested against both
// the full path and the base name.
func (e *Engine) IgnorePath(pattern string) {
	e.ignoredPaths = append(e.ignoredPaths, pattern)
}

func (e *Engine) isIgnoredPath(path string) bool {
	for _, pattern := range e.ignoredPaths {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	return &SourceCode{Lines: lines}, nil
}
