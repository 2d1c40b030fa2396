// The main package for the arxivbot executable.
package main

import (
	"github.com/hepwatch/arxivbot/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
