package main

import "thoreinstein.com/gitmoto/cmd"

func main() {
	cmd.Execute()
}
