package main

import "github.com/aspain/sweatyboot/cmd"

func main() {
	cmd.Execute()
}
