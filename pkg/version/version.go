package version

// Version is the current release of posterforge.
// Overridden at build time via -ldflags "-X posterforge/pkg/version.Version=...".
var Version = "0.3.0-dev"
