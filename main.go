package main

import "github.com/dev-five-git/vespertide/cmd"

func main() {
	cmd.Execute()
}
