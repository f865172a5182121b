package main

import "github.com/emrgen/manual/cmd"

func main() {
	cmd.Execute()
}
