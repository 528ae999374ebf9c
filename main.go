package main

import "instrument-images/cmd"

func main() {
	cmd.Execute()
}
