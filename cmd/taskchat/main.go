package main

import "github.com/marcus/taskchat/cmd/taskchat/commands"

func main() {
	commands.Execute()
}
