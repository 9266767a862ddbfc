package main

import "github.com/user/ksec-copilot/cmd"

func main() {
	cmd.Execute()
}
