// Command ghswitch switches the global git identity and the SSH key used for
// GitHub host aliases between account profiles.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
)

var (
	// version is set via -ldflags.
	version = "dev"
	// commit is set via -ldflags.
	commit = "unknown"
)

func versionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}

	return fmt.Sprintf("%s (commit: %s)", version, commit)
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
