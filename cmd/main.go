package main

import (
	"os"

	"github.com/soundprediction/annotato/cmd/annotato"
)

func main() {
	if err := annotato.Execute(); err != nil {
		os.Exit(1)
	}
}
