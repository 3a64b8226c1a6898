package main

import "capture-chat/cmd/capture/commands"

func main() {
	commands.Execute()
}
