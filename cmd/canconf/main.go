package main

import "canconf/cmd/canconf/cmd"

func main() {
	cmd.Execute()
}
