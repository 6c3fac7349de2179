// amiddy CLI - development reverse proxy for a single virtual host
package main

import "github.com/amiddy/amiddy/pkg/cli"

func main() {
	cli.Execute()
}
