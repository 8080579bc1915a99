// Package internal runs the banned import check over Python sources.
//
// Engine owns a checker loaded with the generated catalog and turns each
// banned import into an Issue, dropping the ones suppressed by a "# noqa"
// comment.
//
// Usage:
//
//	engine := internal.NewEngine(entries)
//	engine.IgnorePath("vendor/*")
//
//	issues, err := engine.Run("path/to/file.py")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, issue := range issues {
//	    fmt.Printf("Found issue: %s at %s\n", issue.Message, issue.Start)
//	}
//
// This package is intended for internal use and should not be imported by
// external packages.
package internal
