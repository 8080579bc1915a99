package formatter

import (
	"bytes"
	"fmt"
	"io"

	tt "github.com/gnolang/banimports/internal/types"
)

const flake8Header = "[flake8]\nbanned-modules =\n"

// RenderFlake8 writes the banned-modules section for entries, in the order
// given, with a single write to w.
func RenderFlake8(w io.Writer, entries []tt.Entry) error {
	var buf bytes.Buffer
	buf.WriteString(flake8Header)
	for _, e := range entries {
		fmt.Fprintf(&buf, "    %s = %s\n", e.OldName, e.Message())
	}
	// output ends with a blank line
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}
