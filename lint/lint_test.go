package lint

import (
	"bytes"
	"context"
	"errors"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/banimports/formatter"
	"github.com/gnolang/banimports/internal/catalog"
	tt "github.com/gnolang/banimports/internal/types"
)

const bundledTable = "../six-moves.tsv"

type mockLintEngine struct {
	mock.Mock
}

func (m *mockLintEngine) Run(filePath string) ([]tt.Issue, error) {
	args := m.Called(filePath)
	return args.Get(0).([]tt.Issue), args.Error(1)
}

func (m *mockLintEngine) RunSource(source []byte) ([]tt.Issue, error) {
	args := m.Called(source)
	return args.Get(0).([]tt.Issue), args.Error(1)
}

func (m *mockLintEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockLintEngine) IgnorePath(path string) {
	m.Called(path)
}

func testIssue(filename, message string) tt.Issue {
	return tt.Issue{
		Rule:     "banned-import",
		Filename: filename,
		Start:    token.Position{Filename: filename, Offset: 0, Line: 1, Column: 1},
		End:      token.Position{Filename: filename, Offset: 10, Line: 1, Column: 10},
		Message:  message,
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expectedIssues := []tt.Issue{testIssue("test.py", "Bastion is removed in Python 3.")}
	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", "test.py").Return(expectedIssues, nil)

	issues, err := ProcessFile(mockEngine, "test.py")

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	expectedIssues := []tt.Issue{testIssue("", "Bastion is removed in Python 3.")}
	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("import Bastion")).Return(expectedIssues, nil)

	issues, err := ProcessSource(mockEngine, []byte("import Bastion"))

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessPath(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "b.py", "a.py")
	createTempFiles(t, tempDir, "notes.txt")

	expectedIssues := []tt.Issue{
		testIssue(paths[0], "Test issue 1"),
		testIssue(paths[1], "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]tt.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]tt.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessPath(context.Background(), zap.NewNop(), mockEngine, tempDir, ProcessFile)

	require.NoError(t, err)
	// file name order: a.py first
	assert.Equal(t, []tt.Issue{expectedIssues[1], expectedIssues[0]}, issues)
	mockEngine.AssertExpectations(t)
	mockEngine.AssertNotCalled(t, "Run", filepath.Join(tempDir, "notes.txt"))
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "main.py", "README.md")

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]tt.Issue{testIssue(paths[0], "issue")}, nil)

	issues, err := ProcessPath(context.Background(), nil, mockEngine, paths[0], ProcessFile)
	require.NoError(t, err)
	assert.Len(t, issues, 1)

	issues, err = ProcessPath(context.Background(), nil, mockEngine, paths[1], ProcessFile)
	require.NoError(t, err)
	assert.Empty(t, issues)

	mockEngine.AssertNumberOfCalls(t, "Run", 1)
}

func TestProcessPathMissing(t *testing.T) {
	t.Parallel()
	_, err := ProcessPath(context.Background(), nil, new(mockLintEngine), filepath.Join(t.TempDir(), "nope"), ProcessFile)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestProcessPathFileError(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "bad.py", "good.py")
	errBroken := errors.New("broken")

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]tt.Issue(nil), errBroken)
	mockEngine.On("Run", paths[1]).Return([]tt.Issue{testIssue(paths[1], "issue")}, nil)

	issues, err := ProcessPath(context.Background(), zap.NewNop(), mockEngine, tempDir, ProcessFile)

	assert.ErrorIs(t, err, errBroken)
	assert.Len(t, issues, 1)
}

func TestProcessPathContextCancellation(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	names := make([]string, 0, 10)
	for _, c := range "abcdefghij" {
		names = append(names, string(c)+".py")
	}
	paths := createTempFiles(t, tempDir, names...)

	mockEngine := new(mockLintEngine)
	for _, p := range paths {
		mockEngine.On("Run", p).Return([]tt.Issue(nil), nil).Maybe()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	issues, err := ProcessPath(ctx, nil, mockEngine, tempDir, ProcessFile)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, issues)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "test1.py", "test2.py")

	expectedIssues := []tt.Issue{
		testIssue(paths[0], "Test issue 1"),
		testIssue(paths[1], "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]tt.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]tt.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessFiles(context.Background(), zap.NewNop(), mockEngine, paths, ProcessFile)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	expectedIssues := []tt.Issue{
		testIssue("", "Test issue 1"),
		testIssue("", "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("import md5")).Return([]tt.Issue{expectedIssues[0]}, nil)
	mockEngine.On("RunSource", []byte("import Bastion")).Return([]tt.Issue{expectedIssues[1]}, nil)

	sources := [][]byte{[]byte("import md5"), []byte("import Bastion")}
	issues, err := ProcessSources(context.Background(), zap.NewNop(), mockEngine, sources, ProcessSource)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()
	assert.True(t, hasDesiredExtension("test.py"))
	assert.True(t, hasDesiredExtension("gui.pyw"))
	assert.False(t, hasDesiredExtension("test.pyc"))
	assert.False(t, hasDesiredExtension("test.go"))
	assert.False(t, hasDesiredExtension("test"))
}

func TestParseConfigurationFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("fields override defaults", func(t *testing.T) {
		path := writeFile(t, dir, "full.yaml", "name: py2\noutput: setup.cfg\nignore:\n  - vendor/*\n")
		cfg, err := ParseConfigurationFile(path)
		require.NoError(t, err)
		assert.Equal(t, Config{
			Name:   "py2",
			Table:  DefaultTablePath,
			Output: "setup.cfg",
			Ignore: []string{"vendor/*"},
		}, cfg)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "")
		cfg, err := ParseConfigurationFile(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := writeFile(t, dir, "unknown.yaml", "rules: {}\n")
		_, err := ParseConfigurationFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseConfigurationFile(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestGenerateBundled(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Table = bundledTable

	entries, err := Generate(cfg, zap.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, formatter.RenderFlake8(&out, entries))

	golden, err := os.ReadFile(filepath.Join("testdata", "banned-modules.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(golden), out.String())
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Table = bundledTable

	first, err := Generate(cfg, nil)
	require.NoError(t, err)
	second, err := Generate(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateDuplicateAborts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Table = bundledTable
	cfg.Supplement = writeFile(t, dir, "supplement.yaml", "entries:\n  - Bastion\n  - bastion\n")

	entries, err := Generate(cfg, zap.NewNop())
	assert.ErrorIs(t, err, catalog.ErrDuplicateEntry)
	assert.Nil(t, entries)
}

func TestGenerateMissingTable(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Table = filepath.Join(t.TempDir(), "six-moves.tsv")

	_, err := Generate(cfg, zap.NewNop())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNew(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Table = bundledTable
	cfg.Ignore = []string{"*_py2.py"}

	engine, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	issues, err := engine.RunSource([]byte("import Bastion\nimport json\n"))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Bastion is removed in Python 3.", issues[0].Message)
	assert.Equal(t, tt.SeverityError, issues[0].Severity)

	ignored := writeFile(t, dir, "legacy_py2.py", "import Bastion\n")
	issues, err = engine.Run(ignored)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func createTempFiles(t *testing.T, dir string, fileNames ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(fileNames))
	for _, fileName := range fileNames {
		paths = append(paths, writeFile(t, dir, fileName, ""))
	}
	return paths
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
