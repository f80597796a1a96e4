package main

import "actionkit/cmd"

func main() {
	cmd.Execute()
}
