package main

import "github.com/tranvictor/addrscout/cmd"

func main() {
	cmd.Execute()
}
