package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/term"

	"dfc-go/internal/dfc"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// filterByName keeps the files whose name matches the glob pattern.
// An empty pattern keeps everything.
func filterByName(files []dfc.SerializedFile, pattern string) ([]dfc.SerializedFile, error) {
	if pattern == "" {
		return files, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	var out []dfc.SerializedFile
	for _, f := range files {
		ok, err := doublestar.Match(pattern, f.Name)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// flagLetters renders the capability bits most callers care about, in the
// style of a permission string: w(rite) d(elete) c(reate) r(ename) v(irtual).
func flagLetters(flags int) string {
	if flags == dfc.FlagsUnknown {
		return "?????"
	}
	bits := []struct {
		flag   int
		letter byte
	}{
		{dfc.FlagSupportsWrite, 'w'},
		{dfc.FlagSupportsDelete, 'd'},
		{dfc.FlagDirSupportsCreate, 'c'},
		{dfc.FlagSupportsRename, 'r'},
		{dfc.FlagVirtualDocument, 'v'},
	}
	out := make([]byte, len(bits))
	for i, b := range bits {
		out[i] = '-'
		if flags&b.flag != 0 {
			out[i] = b.letter
		}
	}
	return string(out)
}

func formatModified(ms int64) string {
	if ms < 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func formatType(f dfc.SerializedFile) string {
	switch f.MimeType {
	case dfc.MimeTypeDir:
		return "dir"
	case "":
		return "-"
	}
	return f.MimeType
}

// writeListing prints files as an aligned table with a header when tabular
// is set, and as one tab separated line per file otherwise.
func writeListing(w io.Writer, files []dfc.SerializedFile, tabular bool) error {
	if !tabular {
		for _, f := range files {
			fields := []string{f.Name, fmt.Sprint(f.Length), formatType(f), formatModified(f.LastModified), flagLetters(f.Flags), f.URI}
			if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FLAGS\tSIZE\tMODIFIED\tTYPE\tNAME")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", flagLetters(f.Flags), f.Length, formatModified(f.LastModified), formatType(f), f.Name)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
