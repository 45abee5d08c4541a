package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/fintrack/internal/buildinfo"
	"github.com/dmitrijs2005/fintrack/internal/notifier"
	"github.com/dmitrijs2005/fintrack/internal/notifier/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := notifier.Run(ctx, cfg); err != nil {
		log.Printf("%v", err)
	}

}
