package version

import (
	"fmt"
	"strconv"
)

// Version values are set at build time using -ldflags.
var Version = "dev"
var Major = "0"
var Minor = "0"
var Patch = "0"
var Built = ""
var GitCommit = ""

type Info struct {
	Version   string
	Major     int
	Minor     int
	Patch     int
	Built     string
	GitCommit string
}

func Get() Info {
	return Info{
		Version:   Version,
		Major:     parseInt(Major),
		Minor:     parseInt(Minor),
		Patch:     parseInt(Patch),
		Built:     Built,
		GitCommit: GitCommit,
	}
}

// IsDev reports whether the binary was built without version ldflags.
func (info Info) IsDev() bool {
	return info.Version == "" || info.Version == "dev"
}

// Line renders the one-line banner printed by --version.
func (info Info) Line(program string) string {
	if info.IsDev() {
		return program + " dev"
	}
	line := fmt.Sprintf("%s version %s", program, info.Version)
	if info.GitCommit != "" {
		line += " (" + info.GitCommit + ")"
	}
	if info.Built != "" {
		line += " built " + info.Built
	}
	return line
}

func parseInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
