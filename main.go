package main

import "github.com/mj1618/overlay-cli/cmd"

func main() {
	cmd.Execute()
}
