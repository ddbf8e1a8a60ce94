package main

import "github.com/teymia/habitkit/cmd"

func main() {
	cmd.Execute()
}
