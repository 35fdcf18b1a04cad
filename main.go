package main

import "github.com/josephlewis42/shellmock/cmd"

func main() {
	cmd.Execute()
}
