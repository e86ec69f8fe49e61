// Command interva assigns causes of death to verbal autopsy records.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
