package main

import "github.com/devicelab-dev/joplin-runner/pkg/cli"

func main() {
	cli.Execute()
}
