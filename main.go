package main

import "chat-widget/cmd"

func main() {
	cmd.Execute()
}
