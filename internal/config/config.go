package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds everything the server needs: postgres credentials, the Stripe
// secret, carrier API settings and the kafka endpoint for lifecycle events.
type Config struct {
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_HOST     string
	DB_PORT     string

	KAFKA_BROKER string
	KAFKA_TOPIC  string

	StripeSecretKey string

	// Carrier integration settings. SenderCode and DepartureDepot are not
	// required at boot: the shipment orchestrator checks them before every
	// external call and fails fast with a configuration error.
	CarrierAPIURL        string
	CarrierAPIKey        string
	CarrierSenderCode    string
	CarrierSenderName    string
	CarrierDepartureDepot string

	// PricingConditions maps a carrier network code to the pricing-condition
	// code used when the routing quote does not carry one.
	// Format: "N01=P10,N02=P20".
	PricingConditions map[string]string

	Port string
}

// LoadConfig reads the configuration from environment variables.
// Secrets that make the service useless when absent are rejected here.
func LoadConfig() (*Config, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	carrierKey := os.Getenv("CARRIER_API_KEY")
	if carrierKey == "" {
		return nil, fmt.Errorf("CARRIER_API_KEY is required")
	}

	return &Config{
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),

		KAFKA_BROKER: os.Getenv("KAFKA_BROKER"),
		KAFKA_TOPIC:  os.Getenv("KAFKA_TOPIC"),

		StripeSecretKey: stripeKey,

		CarrierAPIURL:         getEnv("CARRIER_API_URL", "https://api.carrier.example.com"),
		CarrierAPIKey:         carrierKey,
		CarrierSenderCode:     os.Getenv("CARRIER_SENDER_CODE"),
		CarrierSenderName:     os.Getenv("CARRIER_SENDER_NAME"),
		CarrierDepartureDepot: os.Getenv("CARRIER_DEPARTURE_DEPOT"),

		PricingConditions: parsePricingConditions(os.Getenv("CARRIER_PRICING_CONDITIONS")),

		Port: getEnv("PORT", "8080"),
	}, nil
}

// GetDBURL formats the config into a PostgreSQL connection string.
func (c *Config) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// parsePricingConditions parses "network=condition" pairs separated by commas.
// Malformed pairs are skipped.
func parsePricingConditions(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
