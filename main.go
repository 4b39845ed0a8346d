package main

import "github.com/theirongolddev/marginfc/cmd"

func main() {
	cmd.Execute()
}
