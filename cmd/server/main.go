package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/database"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/router"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedOperator(db)
	if cfg.Server.Env != "production" {
		database.SeedDemoData(db)
	}

	momo := gateway.NewMomoCollectionProvider(
		cfg.Momo.BaseURL, cfg.Momo.SubscriptionKey, cfg.Momo.APIUser, cfg.Momo.APIKey,
		cfg.Momo.TargetEnv, cfg.Momo.CallbackBaseURL+"/api/v1/webhooks/momo", cfg.Momo.Timeout,
	)
	airtel := gateway.NewAirtelCollectionProvider(
		cfg.Airtel.BaseURL, cfg.Airtel.ClientID, cfg.Airtel.ClientSecret,
		cfg.Airtel.Country, cfg.Airtel.Currency, cfg.Airtel.Timeout,
	)
	disbursement := gateway.NewMomoDisbursementProvider(
		cfg.Disbursement.BaseURL, cfg.Disbursement.SubscriptionKey, cfg.Disbursement.APIUser,
		cfg.Disbursement.APIKey, cfg.Disbursement.TargetEnv,
		cfg.Disbursement.CallbackBaseURL+"/api/v1/webhooks/disbursement", cfg.Disbursement.Timeout,
	)

	engine, sweepSvc := router.Setup(cfg, db, router.Deps{
		Collections: map[domain.Gateway]gateway.CollectionProvider{
			domain.GatewayMomo:   momo,
			domain.GatewayAirtel: airtel,
		},
		Disbursement: disbursement,
	})

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if err := sweepSvc.Schedule(scheduler, cfg.Sweep.Interval); err != nil {
		log.Fatalf("schedule sweep: %v", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	_ = scheduler.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
