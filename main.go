package main

import (
	"github.com/smoldb/smoldb-go/cmd"
)

func main() {
	cmd.Execute()
}
