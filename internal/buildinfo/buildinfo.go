// Package buildinfo exposes the driver's version string for use in the
// poll client's User-Agent header.
package buildinfo

// Version is overridden at build time via -ldflags "-X
// github.com/flipdot/driver/internal/buildinfo.Version=...". The default
// "dev" is used for local and test builds.
var Version = "dev"

// UserAgent is the User-Agent value the poll client sends, mirroring the
// original implementation's "flipdot-driver/<version>" convention.
func UserAgent() string {
	return "flipdot-driver/" + Version
}
