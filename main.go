package main

import "github.com/teamleave/leaveapi/cmd"

func main() {
	cmd.Execute()
}
