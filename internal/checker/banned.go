package checker

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"

	"github.com/gnolang/banimports/internal/trie"
	tt "github.com/gnolang/banimports/internal/types"
)

// RuleName is the rule reported for banned imports. Code is the flake8
// error code for the same check, accepted in noqa comments.
const (
	RuleName = "banned-import"
	Code     = "I251"
)

var (
	importStmt     = regexp.MustCompile(`^import\s+(.+)$`)
	fromImportStmt = regexp.MustCompile(`^from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
	// header of a compound statement whose body follows on the same line
	compoundHeader = regexp.MustCompile(`^(?:(?:if|elif|while|for|with|except|def|class)\b[^:]*|else|try|finally):\s*`)
)

// BannedImportChecker finds imports of banned modules and names in Python source.
type BannedImportChecker struct {
	banned *trie.Trie[tt.Entry]
}

// BannedImport is a banned import found by Check.
type BannedImport struct {
	Entry tt.Entry
	// Import is the dotted name as written in the statement.
	Import string
	// Bound is the name the statement binds it to, empty when the whole
	// module of a from-import is banned.
	Bound string
	From  bool
	Start token.Position
	End   token.Position
}

func NewBannedImportChecker() *BannedImportChecker {
	return &BannedImportChecker{banned: trie.New[tt.Entry]()}
}

// Register bans entry.OldName. A later registration of the same name wins.
func (c *BannedImportChecker) Register(entry tt.Entry) {
	c.banned.Insert(entry.OldName, entry)
}

func (c *BannedImportChecker) Len() int {
	return c.banned.Len()
}

// Check scans source for import statements and returns every banned import,
// in source order.
func (c *BannedImportChecker) Check(filename string, source []byte) ([]BannedImport, error) {
	var found []BannedImport
	for _, stmt := range splitStatements(filename, string(source)) {
		text := compoundHeader.ReplaceAllString(stmt.text, "")
		if m := importStmt.FindStringSubmatch(text); m != nil {
			for _, alias := range splitNames(m[1]) {
				if entry, ok := c.lookup(alias.name); ok {
					found = append(found, stmt.report(entry, alias.name, alias.bound(), false))
				}
			}
			continue
		}

		m := fromImportStmt.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		module := m[1]
		if module == "" || strings.HasPrefix(module, ".") {
			// relative imports never name a banned top-level module
			continue
		}
		moduleEntry, moduleBanned := c.lookup(module)
		moduleReported := false
		for _, alias := range splitNames(m[2]) {
			if alias.name != "*" {
				name := module + "." + alias.name
				// an entry longer than module names this alias itself
				if entry, ok := c.lookup(name); ok && len(entry.OldName) > len(module) {
					found = append(found, stmt.report(entry, name, alias.bound(), true))
					continue
				}
			}
			if moduleBanned && !moduleReported {
				found = append(found, stmt.report(moduleEntry, module, "", true))
				moduleReported = true
			}
		}
	}
	return found, nil
}

// lookup returns the entry banning name or its innermost banned parent package.
func (c *BannedImportChecker) lookup(name string) (tt.Entry, bool) {
	return c.banned.LongestPrefix(name)
}

// Suggestion rewrites the statement for a drop-in replacement, keeping the
// bound name so call sites keep working. It is empty when no single import
// statement can replace the banned one.
func (b BannedImport) Suggestion() string {
	if b.Entry.Kind() != tt.KindDropIn || b.Entry.OldName != b.Import || b.Bound == "" {
		return ""
	}

	newName := b.Entry.NewName
	if !b.From {
		// "import a.b" binds a
		if strings.Contains(b.Bound, ".") {
			return ""
		}
		if newName == b.Bound {
			return "import " + newName
		}
		return fmt.Sprintf("import %s as %s", newName, b.Bound)
	}

	i := strings.LastIndexByte(newName, '.')
	if i < 0 {
		// builtins such as int need no import
		return ""
	}
	parent, leaf := newName[:i], newName[i+1:]
	if leaf == b.Bound {
		return fmt.Sprintf("from %s import %s", parent, leaf)
	}
	return fmt.Sprintf("from %s import %s as %s", parent, leaf, b.Bound)
}

type importAlias struct {
	name string
	as   string
}

func (a importAlias) bound() string {
	if a.as != "" {
		return a.as
	}
	return a.name
}

func splitNames(list string) []importAlias {
	list = strings.TrimSpace(list)
	list = strings.TrimPrefix(list, "(")
	list = strings.TrimSuffix(list, ")")

	var aliases []importAlias
	for _, part := range strings.Split(list, ",") {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 0:
			// trailing comma
		case len(fields) >= 3 && fields[1] == "as":
			aliases = append(aliases, importAlias{name: fields[0], as: fields[2]})
		default:
			aliases = append(aliases, importAlias{name: fields[0]})
		}
	}
	return aliases
}

// statement is one logical Python statement with its position.
type statement struct {
	text  string
	start token.Position
	end   token.Position
}

func (s statement) report(entry tt.Entry, name, bound string, from bool) BannedImport {
	return BannedImport{
		Entry:  entry,
		Import: name,
		Bound:  bound,
		From:   from,
		Start:  s.start,
		End:    s.end,
	}
}

// splitStatements joins continuation lines, drops comments and string
// blocks, and splits on semicolons. Statements that cannot be imports only
// need to not look like one.
func splitStatements(filename, source string) []statement {
	var (
		stmts     []statement
		buf       strings.Builder
		depth     int
		inString  string
		start     token.Position
		lineStart int
	)

	flush := func(end token.Position) {
		for _, part := range strings.Split(buf.String(), ";") {
			part = strings.TrimSpace(part)
			if part != "" {
				stmts = append(stmts, statement{text: part, start: start, end: end})
			}
		}
		buf.Reset()
		depth = 0
	}

	for i, raw := range strings.Split(source, "\n") {
		lineNum := i + 1
		offset := lineStart
		lineStart += len(raw) + 1

		line := strings.TrimRight(raw, "\r")
		col := 0
		if inString != "" {
			idx := strings.Index(line, inString)
			if idx < 0 {
				continue
			}
			col = idx + len(inString)
			line = line[col:]
			inString = ""
			if buf.Len() == 0 {
				continue
			}
		}

		code, delta, opened := scanLine(line)
		inString = opened
		if buf.Len() == 0 {
			trimmed := strings.TrimLeft(code, " \t")
			if trimmed == "" {
				continue
			}
			indent := col + len(code) - len(trimmed)
			start = token.Position{Filename: filename, Offset: offset + indent, Line: lineNum, Column: indent + 1}
		}

		code = strings.TrimRight(code, " \t")
		endCol := col + len(code)
		cont := strings.HasSuffix(code, "\\")
		text := strings.TrimSpace(strings.TrimSuffix(code, "\\"))
		depth += delta
		if depth < 0 {
			depth = 0
		}

		if text != "" {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(text)
		}
		if cont || depth > 0 || inString != "" {
			continue
		}
		flush(token.Position{Filename: filename, Offset: offset + endCol, Line: lineNum, Column: endCol})
	}

	if buf.Len() > 0 {
		flush(start)
	}
	return stmts
}

// scanLine returns the code part of line without its comment, the change in
// bracket depth outside string literals, and the delimiter of a triple quoted
// string left open at the end of the line.
func scanLine(line string) (string, int, string) {
	var (
		quote string
		delta int
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if quote != "" {
			if ch == '\\' {
				i++
				continue
			}
			if strings.HasPrefix(line[i:], quote) {
				i += len(quote) - 1
				quote = ""
			}
			continue
		}
		switch ch {
		case '#':
			return line[:i], delta, ""
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		case '"', '\'':
			q := string(ch)
			if strings.HasPrefix(line[i:], strings.Repeat(q, 3)) {
				q = strings.Repeat(q, 3)
			}
			quote = q
			i += len(q) - 1
		}
	}
	if len(quote) == 3 {
		return line, delta, quote
	}
	return line, delta, ""
}
