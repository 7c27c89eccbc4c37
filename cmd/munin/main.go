package main

import (
	"github.com/munindb/munin/cmd/munin/cmd"
)

func main() {
	cmd.Execute()
}
