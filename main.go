package main

import "github.com/radin-mg/dnslb/cmd"

func main() {
	cmd.Execute()
}
