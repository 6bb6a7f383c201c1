// Package version carries build metadata for the slotgrid binary.
package version

import "runtime/debug"

const unknown = "unknown"

// Set with -ldflags "-X github.com/Sumatoshi-tech/slotgrid/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Commit and Date from the module build info when
// they were not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String renders the version line printed by "slotgrid version".
func String() string {
	return "slotgrid " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
