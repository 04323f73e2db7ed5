package main

import "gamedev-ai/cmd"

func main() {
	cmd.Execute()
}
