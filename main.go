// ./main.go
package main

import (
	"github.com/mzahir/trailcap/cmd"
)

// main is the entry point for the trailcap CLI.
func main() {
	cmd.Execute()
}
