package main

import "github.com/lepinkainen/lcsc-lookup/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
