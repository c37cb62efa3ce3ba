package main

import (
	"os"

	"github.com/ThePeeKayy/resumate-orbital/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
