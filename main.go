package main

import "shelf/cmd"

func main() {
	cmd.Execute()
}
