// Package main defines the build tasks, run with `go run ./build <task>`.
package main

import (
	"os"
	"os/exec"

	"github.com/goyek/goyek/v2"
)

func gocmd(a *goyek.A, args ...string) {
	a.Helper()
	a.Logf("go %v", args)
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		a.Error(err)
	}
}

var vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "Run go vet on all packages",
	Action: func(a *goyek.A) {
		gocmd(a, "vet", "./...")
	},
})

var testShort = goyek.Define(goyek.Task{
	Name:  "test-short",
	Usage: "Run unit tests, skipping container-backed tests",
	Action: func(a *goyek.A) {
		gocmd(a, "test", "-short", "-race", "./...")
	},
})

var test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "Run all tests including PostgreSQL container tests",
	Action: func(a *goyek.A) {
		gocmd(a, "test", "-race", "./...")
	},
})

var _ = goyek.Define(goyek.Task{
	Name:  "migrate",
	Usage: "Apply PostgreSQL migrations using the default configuration",
	Action: func(a *goyek.A) {
		gocmd(a, "run", "./cmd/migrate", "-direction", "up")
	},
})

var all = goyek.Define(goyek.Task{
	Name:  "all",
	Usage: "Run vet and short tests",
	Deps:  goyek.Deps{vet, testShort},
})

func main() {
	goyek.SetDefault(all)
	goyek.Main(os.Args[1:])
}
