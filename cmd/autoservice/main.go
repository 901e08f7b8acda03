package main

import (
	"os"

	"github.com/Additional-Code/autoservice/internal/cli"
	"github.com/Additional-Code/autoservice/pkg/errorbank"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errorbank.IsKind(err, errorbank.KindBadRequest) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
