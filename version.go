package parley

// Version is the release version, set at build time with -ldflags "-X github.com/aretw0/parley.Version=...".
var Version = "dev"
