package main

// GET    /products                  - list products
// GET    /customers                 - list customers
// POST   /products/check-duplicate  - product uniqueness check
// POST   /sale                      - commit a sale
// GET    /sales-list                - list sales (?customer=&date=)
// GET    /sales-list/{id}           - one sale with its items
// DELETE /sales/{id}                - reverse a sale and restock
// GET    /total-instock, /total-stock-value, /total-customers, /total-invoices
// GET    /sales-report              - ?startDate=&endDate= (whole days)
// GET    /stock-alert[/export]      - products under their alert threshold

import (
	"context"
	_ "embed"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"mamushop-admin/cache"
	"mamushop-admin/config"
	"mamushop-admin/handler"
	"mamushop-admin/service"
	"mamushop-admin/store"
)

//go:embed migrations.sql
var migrationSQL string

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	st, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer st.Close()

	// --- RUN MIGRATIONS ---
	if _, err := st.DB.ExecContext(ctx, migrationSQL); err != nil {
		log.Fatalf("Failed running migrations: %v", err)
	}
	log.Println("Database migrations executed successfully")

	// --- Cache ---
	var pc cache.ProductCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ProductCacheTTL)
		if err != nil {
			log.Printf("[cache] WARN: %v; serving products without cache", err)
		} else {
			defer rc.Close()
			pc = rc
		}
	}

	// --- Service ---
	var svc service.ServiceInterface = service.NewService(st, pc)

	// --- Handlers ---
	h := handler.NewHandler(svc)

	// --- Router ---
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
