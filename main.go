package main

import "umrah-desk/cmd"

func main() {
	cmd.Execute()
}
