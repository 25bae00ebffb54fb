package main

import (
	"log"

	tool "github.com/spendwise/spendwise/internal/tools/obscheck"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
