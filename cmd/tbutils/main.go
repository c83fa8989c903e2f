package main

import "github.com/nxtrade/tbutils/internal/cli"

func main() {
	cli.Execute()
}
