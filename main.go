package main

import "github.com/gptportal/portal-go/cmd"

func main() {
	cmd.Execute()
}
