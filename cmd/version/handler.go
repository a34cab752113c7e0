package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X gamelift-connect/cmd/version.version=..."
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// Template is installed as the root command's --version output. Version is a
// flag rather than a subcommand so any fleet id, including "version", reaches
// the positional arguments.
func Template() string {
	return fmt.Sprintf("gamelift-connect version {{.Version}}\nBuild time: %s\nGit commit: %s\nGo version: %s\nOS/Arch: %s/%s\n",
		buildTime, gitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
