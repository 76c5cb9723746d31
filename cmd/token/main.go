// Command token mints a signed API token for a user id.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand(loadSecret)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
