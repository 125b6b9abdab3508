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
	{` __      __              _____.__            .___`, "#34d399"},
	{`/  \    /  \_____  ___.__/ ____\__| ____    __| _/___________`, "#2dd4bf"},
	{`\   \/\/   /\__  \<   |  \   __\|  |/    \  / __ |/ __ \_  __ \`, "#22d3ee"},
	{` \        /  / __ \\___  ||  |  |  |   |  \/ /_/ \  ___/|  | \/`, "#38bdf8"},
	{`  \__/\  /  (____  / ____||__|  |__|___|  /\____ |\___  >__|`, "#60a5fa"},
	{`       \/        \/\/                   \/      \/    \/`, "#818cf8"},
}

// PrintBanner writes the Wayfinder banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", out.String("v"+version).Faint())
}
