package main

import (
	"cliplink/cmd"
)

func main() {
	cmd.Execute()
}
