package main

import "astroref/internal/cli"

func main() {
	cli.Execute()
}
