package main

import "github.com/tangentchat/tangent/cmd"

func main() {
	cmd.Execute()
}
