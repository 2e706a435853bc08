package main

import "github.com/omochice/socket-relay/cmd/relay/command"

func main() {
	command.Execute()
}
