package main

import (
	"log"

	"github.com/nerith/photofold/cmd"
	"github.com/nerith/photofold/config"
)

func main() {
	log.Printf("photofold %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
