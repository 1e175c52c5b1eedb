// Command desk is the operator console: compose a sale against the live
// catalog, commit it, and browse sales and the dashboard.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"mamushop-admin/client"
	"mamushop-admin/config"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout})
	d, err := newDesk(api, cfg.ReportWindowDays, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("desk: %v", err)
	}
	if err := d.run(ctx); err != nil {
		log.Fatalf("desk: %v", err)
	}
}
