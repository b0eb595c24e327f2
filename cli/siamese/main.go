package main

import (
	"os"

	siamesecmder "github.com/papercomputeco/siamese/cmd/siamese"
)

func main() {
	cmd := siamesecmder.NewSiameseCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
