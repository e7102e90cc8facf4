package main

import "github.com/drivedeck/drivedeck/internal/cli"

// Version fallback for non-Makefile builds; releases inject these via
// LDFLAGS.
var (
	version   = "v1.0.0-dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime
	cli.Execute()
}
