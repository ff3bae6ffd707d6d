package version

// Version is stamped at build time via
// -ldflags "-X mhcbind/internal/version.Version=...".
var Version = "dev"
