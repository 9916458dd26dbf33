package main

import "log"

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	Execute()
}
