package main

import "farmsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
