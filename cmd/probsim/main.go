// Package main provides the probsim binary: a probability simulator for dice,
// coin, and wheel trials with persistent history.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
