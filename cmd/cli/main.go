package main

import "github.com/thread-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
