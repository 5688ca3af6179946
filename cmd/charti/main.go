package main

import "github.com/rustyeddy/charti/internal/cli"

func main() {
	cli.Execute()
}
