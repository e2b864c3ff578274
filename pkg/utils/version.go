// Package utils holds build metadata and small string helpers shared by the
// lingo commands.
package utils

// Set at link time with -ldflags "-X github.com/papercomputeco/lingo/pkg/utils.Version=...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
