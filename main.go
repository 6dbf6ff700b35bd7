package main

import "github.com/giygas/protocolos-api/cmd"

func main() {
	cmd.Execute()
}
