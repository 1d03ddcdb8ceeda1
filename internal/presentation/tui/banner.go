package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the policydesk banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"              _ _                 _           _    ", "#818cf8"},
		{"  _ __   ___ | (_) ___ _   _   __| | ___  ___| | __", "#a78bfa"},
		{" | '_ \\ / _ \\| | |/ __| | | | / _` |/ _ \\/ __| |/ /", "#c084fc"},
		{" | |_) | (_) | | | (__| |_| || (_| |  __/\\__ \\   < ", "#e879f9"},
		{" | .__/ \\___/|_|_|\\___|\\__, | \\__,_|\\___||___/_|\\_\\", "#f472b6"},
		{" |_|                   |___/                        ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
