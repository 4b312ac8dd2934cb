// Command docchat indexes PDF documents and answers questions about them.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/docchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/docchat/internal/app"
)

func main() {
	cli.SetBootstrap(app.Bootstrap)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
