package version

// Version is the current version of barsim.
// It is overridden at build time with
// -ldflags "-X github.com/rxtech-lab/barsim/internal/version.Version=v1.2.3".
// "main" marks a development build.
var Version = "v1.0.0"

// GetVersion returns the current version.
func GetVersion() string {
	return Version
}
