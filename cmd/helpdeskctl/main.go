package main

import (
	"log"

	"github.com/facilityworks/helpdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
