package main

import (
	"os"

	"github.com/SensorsIot/Energy-Management/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
