package main

import "crustdata.com/support-chatbot/internal/commands"

func main() {
	commands.Execute()
}
