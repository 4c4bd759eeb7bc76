package main

import (
	"fmt"
	"io"

	"github.com/HerbHall/dnsswitch/internal/version"
)

func runVersion(stdout io.Writer) int {
	fmt.Fprintln(stdout, version.Current())
	return exitOK
}
