package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"    _                    _       ", "#34d399"},
	{"   /_\\  __ _ ___ _ _  __| |__ _  ", "#2dd4bf"},
	{"  / _ \\/ _` / -_) ' \\/ _` / _` | ", "#22d3ee"},
	{" /_/ \\_\\__, \\___|_||_\\__,_\\__,_| ", "#38bdf8"},
	{"       |___/                     ", "#60a5fa"},
}

// PrintBanner writes the colored agenda banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
