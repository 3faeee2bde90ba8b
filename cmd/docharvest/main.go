package main

import "github.com/mvp-joe/docharvest/internal/cli"

func main() {
	cli.Execute()
}
