package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/autoservice/internal/app"
)

// api runs only the HTTP surface; the autoservice binary offers the full CLI.
func main() {
	fx.New(app.HTTP).Run()
}
