package main

import "credscore/internal/cli"

func main() {
	cli.Execute()
}
