package main

import "github.com/jmehdipour/typed-rpc/cmd"

func main() {
	cmd.Execute()
}
