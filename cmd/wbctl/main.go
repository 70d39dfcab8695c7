package main

import "github.com/mcoot/wordbattle/internal/cli"

func main() {
	cli.Execute()
}
