package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/begrippen/internal/buildconfig.version=v1.4.0
var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// Info is reported by the health endpoint and the CLI version command.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func Current() Info {
	return Info{Version: version, Commit: commit}
}

// String renders "version (commit)", e.g. "dev (unknown)".
func (i Info) String() string {
	return i.Version + " (" + i.Commit + ")"
}
