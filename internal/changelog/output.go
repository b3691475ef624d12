package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputFile is the fixed name the rendered changelog is written to, in the
// working directory, so an existing CHANGELOG.md is never clobbered.
const OutputFile = "CHANGELOG.temp"

// separator frames the changelog on the terminal.
var separator = strings.Repeat("#", 79)

// WriteOutput prints the rendered changelog framed by separator lines and
// writes it verbatim to path.
func WriteOutput(w io.Writer, path, content string) error {
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, content)
	fmt.Fprintln(w, separator)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
