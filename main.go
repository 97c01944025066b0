package main

import "github.com/ridoystarlord/sqldelete/cmd"

func main() {
	cmd.Execute()
}
