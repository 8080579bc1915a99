package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/banimports/formatter"
	"github.com/gnolang/banimports/internal"
	tt "github.com/gnolang/banimports/internal/types"
	"github.com/gnolang/banimports/lint"
)

type checkOptions struct {
	ignoreRules string
	ignorePaths string
	jsonOutput  bool
	outPath     string
}

// checkCmd: banimports check [paths...]
func newCheckCmd(opts *rootOptions) *cobra.Command {
	checkOpts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report banned imports in Python files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, checkOpts, args)
		},
	}
	cmd.Flags().StringVar(&checkOpts.ignoreRules, "ignore", "", "Comma-separated list of rules to ignore")
	cmd.Flags().StringVar(&checkOpts.ignorePaths, "ignore-paths", "", "Comma-separated list of path patterns to ignore")
	cmd.Flags().BoolVar(&checkOpts.jsonOutput, "json", false, "Output issues in JSON format")
	cmd.Flags().StringVarP(&checkOpts.outPath, "output", "o", "", "Output path (when using JSON)")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *rootOptions, checkOpts *checkOptions, paths []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	engine, err := lint.New(cfg, opts.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	for _, rule := range splitList(checkOpts.ignoreRules) {
		engine.IgnoreRule(rule)
	}
	for _, path := range splitList(checkOpts.ignorePaths) {
		engine.IgnorePath(path)
	}

	issues, err := lint.ProcessFiles(ctx, opts.logger, engine, paths, lint.ProcessFile)
	if err != nil {
		return err
	}

	if err := printIssues(cmd.OutOrStdout(), opts.logger, issues, checkOpts.jsonOutput, checkOpts.outPath); err != nil {
		return err
	}
	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func printIssues(w io.Writer, logger *zap.Logger, issues []tt.Issue, isJSON bool, jsonOutput string) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	if isJSON {
		d, err := json.Marshal(issuesByFile)
		if err != nil {
			return fmt.Errorf("marshalling issues to JSON: %w", err)
		}
		if jsonOutput == "" {
			_, err = fmt.Fprintln(w, string(d))
			return err
		}
		return os.WriteFile(jsonOutput, d, 0o644)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		sourceCode, err := internal.ReadSourceCode(filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
			continue
		}
		fmt.Fprint(w, formatter.GenerateFormattedIssue(issuesByFile[filename], sourceCode))
	}
	return nil
}
