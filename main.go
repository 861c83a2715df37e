package main

import "github.com/valpere/boundary_staticmap/cmd"

func main() {
	cmd.Execute()
}
