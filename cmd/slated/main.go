// Command slated runs the release scheduler daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"slate/internal/config"
	"slate/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
