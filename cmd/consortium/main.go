// Command consortium runs several UCI chess engines side by side behind a
// single command prompt.
package main

import (
	"os"

	"github.com/Iron-Ham/consortium/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
