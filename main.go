package main

import (
	// Embedded zone database so MEET_TIME_ZONE works in minimal images.
	_ "time/tzdata"

	"github.com/teemow/meetlink/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
