// Command sndeals is the command-line client for a classifieds backend.
package main

import "github.com/mesh-intelligence/sndeals/internal/cli"

func main() {
	cli.Execute()
}
