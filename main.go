package main

import "lossless-verifier/cmd"

func main() {
	cmd.Execute()
}
