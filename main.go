package main

import "github.com/weftmesh/weft/cmd"

func main() {
	cmd.Execute()
}
