package main

import "universal-redaction/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
