// Command scorectl scores answer files offline and runs maintenance jobs
// against a deployed scoring database.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
