package lint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/banimports/internal"
	"github.com/gnolang/banimports/internal/catalog"
	"github.com/gnolang/banimports/internal/manifest"
	"github.com/gnolang/banimports/internal/table"
	tt "github.com/gnolang/banimports/internal/types"
	"github.com/gnolang/banimports/scanner"
)

const (
	DefaultConfigPath = ".banimports.yaml"
	DefaultTablePath  = "six-moves.tsv"
)

type LintEngine interface {
	Run(filePath string) ([]tt.Issue, error)
	RunSource(source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
	IgnorePath(path string)
}

// Config is the content of .banimports.yaml. Empty paths select the bundled
// data, an empty output selects stdout.
type Config struct {
	Name       string   `yaml:"name"`
	Table      string   `yaml:"table"`
	Manifest   string   `yaml:"manifest,omitempty"`
	Supplement string   `yaml:"supplement,omitempty"`
	Output     string   `yaml:"output,omitempty"`
	Ignore     []string `yaml:"ignore,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Name:  "banimports",
		Table: DefaultTablePath,
	}
}

// ParseConfigurationFile reads a configuration file. Fields missing from the
// file keep their default values.
func ParseConfigurationFile(configurationPath string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("parsing %s: %w", configurationPath, err)
	}
	return config, nil
}

// Generate loads the table and the supplementary list of cfg and returns the
// sorted, validated catalog. Nothing is returned unless every entry is valid.
func Generate(cfg Config, logger *zap.Logger) ([]tt.Entry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rows, err := table.LoadFile(cfg.Table)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded table", zap.String("path", cfg.Table), zap.Int("rows", len(rows)))

	m, err := loadManifest(cfg.Manifest)
	if err != nil {
		return nil, err
	}

	supplement, err := loadSupplement(cfg.Supplement)
	if err != nil {
		return nil, err
	}

	entries, err := catalog.Build(rows, supplement, m, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("built catalog", zap.Int("entries", len(entries)))
	return entries, nil
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		return manifest.Default()
	}
	return manifest.LoadFile(path)
}

func loadSupplement(path string) (*catalog.Supplement, error) {
	if path == "" {
		return catalog.DefaultSupplement()
	}
	return catalog.LoadSupplementFile(path)
}

// New generates the catalog of cfg and returns an engine banning it.
func New(cfg Config, logger *zap.Logger) (*internal.Engine, error) {
	entries, err := Generate(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine := internal.NewEngine(entries)
	for _, pattern := range cfg.Ignore {
		engine.IgnorePath(pattern)
	}
	return engine, nil
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	sources [][]byte,
	processor func(LintEngine, []byte) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return allIssues, err
		}
		issues, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return allIssues, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

// ProcessPath checks a single file, or every Python file under a directory
// using one worker per CPU. Issues come back in file name order. After a
// cancellation the issues of the files already checked are returned along
// with the context error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	path string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return nil, nil
		}
		return processor(engine, path)
	}

	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	results := make([][]tt.Issue, len(files))
	errs := make([]error, len(files))

	// limit the number of workers
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for i, filePath := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fileIssues, err := processor(engine, filePath)
			if err != nil && logger != nil {
				logger.Error("Error processing file", zap.String("file", filePath), zap.Error(err))
			}
			// a failing file does not stop the others
			results[i], errs[i] = fileIssues, err
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	issues := make([]tt.Issue, 0)
	for _, r := range results {
		issues = append(issues, r...)
	}
	if err := ctx.Err(); err != nil {
		return issues, err
	}
	return issues, errors.Join(errs...)
}

func collectFiles(root string) ([]string, error) {
	found, err := scanner.New(root, pythonExtensions...).Scan()
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}
	files := make([]string, len(found))
	for i, f := range found {
		files[i] = f.Path
	}
	return files, nil
}

func ProcessFile(engine LintEngine, filePath string) ([]tt.Issue, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine LintEngine, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(source)
}

var pythonExtensions = []string{".py", ".pyw"}

func hasDesiredExtension(path string) bool {
	return scanner.New("", pythonExtensions...).IsTargetFile(path)
}
