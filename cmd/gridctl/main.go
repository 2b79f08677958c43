// Command gridctl renders grids from data files on the console and exports
// them to files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
