// Package main is the entry point of the modelhub binary. Subcommands:
//
//	serve    run the HTTP server (pages, JSON API, probes)
//	build    export the catalog as a static site, optionally rebuilding on change
//	search   filter the registry from the terminal
//	show     print one model, optionally with its artifacts
//	version  print the binary version
//
// Prometheus metrics and pprof are served on their own side ports, never on
// the public listener.
package main

import (
	"log"
)

// version is overridden at link time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
