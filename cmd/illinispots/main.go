package main

import "github.com/illinispots/pipeline/cmd"

func main() {
	cmd.Execute()
}
