package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), OutputFile)
	content := "## Version 0.2 (2017-02-01)\n"

	var terminal strings.Builder
	if err := WriteOutput(&terminal, path, content); err != nil {
		t.Fatal(err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != content {
		t.Errorf("file content = %q, want the document verbatim", written)
	}

	out := terminal.String()
	if !strings.Contains(out, content) {
		t.Error("terminal output missing the document")
	}
	if strings.Count(out, separator) != 2 {
		t.Errorf("terminal output should frame the document with two separator lines:\n%s", out)
	}
}
