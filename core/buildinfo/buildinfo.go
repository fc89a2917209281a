// Package buildinfo reports the version of the running binary.
//
// Release builds stamp the variables with -ldflags:
//
//	-X 'github.com/m3rciful/phonebook/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/phonebook/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/phonebook/core/buildinfo.Date=2025-08-30T12:00:00Z'
//
// Unstamped builds fall back to the module and VCS data embedded by go build.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version = "dev"
	Commit  = ""
	// Date is the build timestamp in RFC3339 format.
	Date = ""
)

// Info describes one build.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Get merges the stamped variables with debug.ReadBuildInfo.
func Get() Info {
	info := Info{
		Version:   strings.TrimSpace(Version),
		Commit:    strings.TrimSpace(Commit),
		Date:      strings.TrimSpace(Date),
		GoVersion: runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if (info.Version == "" || info.Version == "dev") && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "":
			info.Date = s.Value
		}
	}
	return info
}

// String renders "<version> (<commit>, <date>)", dropping the unknown parts.
func (i Info) String() string {
	var extra []string
	if i.Commit != "" {
		extra = append(extra, shortCommit(i.Commit))
	}
	if i.Date != "" {
		extra = append(extra, i.Date)
	}
	if len(extra) == 0 {
		return i.Version
	}
	return i.Version + " (" + strings.Join(extra, ", ") + ")"
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
