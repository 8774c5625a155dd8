// Package display holds console presentation helpers: the startup banner
// and human-readable number formatting.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/metamirror/internal/term"
)

// PrintBanner writes the ASCII banner and version to w, in magenta when
// colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `                 _                  _
 _ __ ___   ___| |_ __ _ _ __ ___ (_)_ __ _ __ ___  _ __
| '_ `+"`"+` _ \ / _ \ __/ _`+"`"+` | '_ `+"`"+` _ \| | '__| '__/ _ \| '__|
| | | | | |  __/ || (_| | | | | | | | |  | | | (_) | |
|_| |_| |_|\___|\__\__,_|_| |_| |_|_|_|  |_|  \___/|_|
`)
	fmt.Fprint(w, term.NC)
	if version != "" {
		fmt.Fprintf(w, "  %s\n", version)
	}
	fmt.Fprintln(w)
}
