// ABOUTME: Entry point for the bolha admin console
// ABOUTME: Hands the command line to the cobra command tree
package main

import (
	"os"

	"github.com/harperreed/bolha/cli"
)

const version = "0.1.0"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
