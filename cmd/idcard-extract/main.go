// Command idcard-extract reads identity card images and PDFs from the
// command line and prints the extracted records.
package main

import (
	"os"

	"github.com/a3tai/mcp-idcard-reader/internal/app"
)

func main() {
	cmd := newRootCommand(app.NewService)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
