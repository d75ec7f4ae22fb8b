package version

import "fmt"

// ImplName is the implementation name reported to peers, telemetry and RPC.
const ImplName = "Subspace-desktop"

// Version and Commit are set at link time:
//
//	go build -ldflags "-X github.com/DeBrosOfficial/fullnode/pkg/version.Version=0.6.14"
var (
	Version = "0.1.0"
	Commit  = ""
)

// Full returns the build version string, with the short commit appended when known.
func Full() string {
	if Commit == "" {
		return Version
	}
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s-%s", Version, commit)
}
