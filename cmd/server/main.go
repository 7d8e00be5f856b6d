package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/agservizi/parcelport/internal/api"
	"github.com/agservizi/parcelport/internal/carrier"
	"github.com/agservizi/parcelport/internal/config"
	"github.com/agservizi/parcelport/internal/events"
	"github.com/agservizi/parcelport/internal/payment"
	"github.com/agservizi/parcelport/internal/pricing"
	"github.com/agservizi/parcelport/internal/shipment"
	"github.com/agservizi/parcelport/internal/store/postgres"
	"github.com/agservizi/parcelport/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := postgres.Open(cfg.GetDBURL())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	paymentStore := postgres.NewPaymentStore(db)
	portalStore := postgres.NewPortalShipmentStore(db)
	coreStore := postgres.NewCoreShipmentStore(db)
	tierStore := postgres.NewPricingTierStore(db)
	sequenceStore := postgres.NewSequenceStore(db)

	carrierClient := carrier.NewClient(cfg.CarrierAPIURL, cfg.CarrierAPIKey)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey)

	var publisher events.Publisher
	if cfg.KAFKA_BROKER != "" {
		kp := events.NewKafkaPublisher(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC)
		defer kp.Close()
		publisher = kp
	}

	settings := shipment.CarrierSettings{
		SenderCode:        cfg.CarrierSenderCode,
		SenderName:        cfg.CarrierSenderName,
		DepartureDepot:    cfg.CarrierDepartureDepot,
		PricingConditions: cfg.PricingConditions,
	}

	syncEngine := shipment.NewSyncEngine(portalStore, coreStore)
	orchestrator := shipment.NewOrchestrator(portalStore, coreStore, carrierClient, sequenceStore, publisher, settings)
	shipmentService := shipment.NewService(portalStore, coreStore, carrierClient, syncEngine, settings)

	matcher := pricing.NewMatcher(tierStore)
	stateMachine := payment.NewStateMachine(paymentStore)
	finalizer := payment.NewFinalizer(stateMachine, paymentStore, gateway, orchestrator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.NewReconciler(paymentStore, gateway).Start(ctx)

	handler := api.NewHandler(matcher, stateMachine, paymentStore, finalizer, shipmentService)
	r := api.NewRouter(handler)

	log.Printf("server running on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
