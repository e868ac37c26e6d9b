package main

import "github.com/samuelfneumann/discretesac/cmd"

func main() {
	cmd.Execute()
}
