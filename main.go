package main

import "github.com/shediao/subprocess-go/cmd"

func main() {
	cmd.Execute()
}
