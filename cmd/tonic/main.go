package main

import (
	"os"

	"github.com/mikeyobrien/tonic/internal/driver"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	os.Exit(driver.Main(os.Args[1:], driver.BuildInfo{Version: version, BuildDate: buildDate}))
}
