package main

import (
	"fmt"
	"os"

	// Embedded zone database for pricing.timezone on minimal images
	_ "time/tzdata"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
