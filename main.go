package main

import "github.com/schemaplex/schemaplex/cmd"

func main() {
	cmd.Execute()
}
