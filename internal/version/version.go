// Package version identifies the running pokepalette build. The CLI prints it,
// the server reports it from /healthz and the sprite fetcher sends it as its
// User-Agent.
//
// Release builds set Version, Commit and Date with -ldflags, for example:
//
//	-X github.com/jmylchreest/pokepalette/internal/version.Version=1.2.0
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in version strings and the User-Agent.
const Name = "pokepalette"

var (
	Version = "dev"
	Commit  = "unknown"
	// Date is RFC3339.
	Date = "unknown"

	GoVersion = runtime.Version()
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo snapshots the current build metadata.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String is the "pokepalette version" line. Commit and date only appear once a
// release build has set both.
func String() string {
	info := GetInfo()
	if Commit == "unknown" || Date == "unknown" {
		return fmt.Sprintf("%s version %s (%s, %s)", Name, info.Version, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("%s version %s (commit: %s, built: %s, %s, %s)",
		Name, info.Version, shortCommit(info.Commit), info.Date, info.GoVersion, info.Platform)
}

// Short returns the bare version.
func Short() string {
	return Version
}

// UserAgent is sent with every sprite download.
func UserAgent() string {
	return Name + "/" + Version
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
