package main

import "github.com/MeKo-Tech/atlasmatch/cmd/atlasmatch/cmd"

func main() {
	cmd.Execute()
}
