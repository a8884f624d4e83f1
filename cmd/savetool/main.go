package main

import (
	"context"
	"flag"
	"log"
	"os"

	savetoolcmd "github.com/lmoreau/emberhollow/internal/cmd/savetool"
)

func main() {
	cfg, err := savetoolcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SAVETOOL] ")

	if err := savetoolcmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		log.Fatalf("savetool: %v", err)
	}
}
