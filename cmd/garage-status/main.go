package main

import (
	"github.com/pfrederiksen/garage-status/internal/cli"
)

func main() {
	cli.Execute()
}
