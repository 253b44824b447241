package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	defaultHelpDesc    = "Show help"
	defaultVersionDesc = "Print version and exit"
)

type HelpVersionFlags struct {
	Help    bool
	Version bool
}

// AddHelpVersionFlags registers -h/--help and -v/--version on fs.
func AddHelpVersionFlags(fs *flag.FlagSet, helpDesc, versionDesc string) *HelpVersionFlags {
	if fs == nil {
		return &HelpVersionFlags{}
	}
	if helpDesc == "" {
		helpDesc = defaultHelpDesc
	}
	if versionDesc == "" {
		versionDesc = defaultVersionDesc
	}
	flags := &HelpVersionFlags{}
	fs.BoolVar(&flags.Help, "help", false, helpDesc)
	fs.BoolVar(&flags.Help, "h", false, helpDesc)
	fs.BoolVar(&flags.Version, "version", false, versionDesc)
	fs.BoolVar(&flags.Version, "v", false, versionDesc)
	return flags
}

// PrintUsage writes a usage line followed by the non-alias flags of fs.
// Short aliases registered by AddHelpVersionFlags are folded into their long
// names.
func PrintUsage(out io.Writer, usage string, fs *flag.FlagSet) {
	if out == nil {
		return
	}
	fmt.Fprintf(out, "Usage: %s\n", usage)
	if fs == nil {
		return
	}
	aliases := map[string]string{"help": "h", "version": "v"}
	lines := []string{}
	fs.VisitAll(func(f *flag.Flag) {
		if f.Name == "h" || f.Name == "v" {
			return
		}
		name := "--" + f.Name
		if short, ok := aliases[f.Name]; ok {
			name = "-" + short + ", " + name
		}
		lines = append(lines, fmt.Sprintf("  %-18s %s", name, f.Usage))
	})
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
