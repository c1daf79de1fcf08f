package main

import (
	"os"

	"github.com/OfekItzhaki/horizon-hcm/cmd/hcm/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
