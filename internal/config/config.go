package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Trelis credentials. The API key/secret authenticate outbound
	// link-creation calls; the webhook secret signs inbound callbacks.
	TrelisAPIKey        string
	TrelisAPISecret     string
	TrelisWebhookSecret string

	// Merchant account options forwarded on link creation.
	TrelisPrime   bool
	TrelisGasless bool

	// ReturnURL is where the processor redirects the buyer after payment.
	ReturnURL string
	ShopName  string

	// ServiceJWTSecret signs bearer tokens for the internal API.
	ServiceJWTSecret string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:              os.Getenv("DB_HOST"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              os.Getenv("DB_NAME"),
		DBPort:              os.Getenv("DB_PORT"),
		AppPort:             os.Getenv("APP_PORT"),
		AppEnv:              os.Getenv("APP_ENV"),
		TrelisAPIKey:        os.Getenv("TRELIS_API_KEY"),
		TrelisAPISecret:     os.Getenv("TRELIS_API_SECRET"),
		TrelisWebhookSecret: os.Getenv("TRELIS_WEBHOOK_SECRET"),
		TrelisPrime:         os.Getenv("TRELIS_PRIME") == "yes",
		TrelisGasless:       os.Getenv("TRELIS_GASLESS") == "yes",
		ReturnURL:           os.Getenv("RETURN_URL"),
		ShopName:            os.Getenv("SHOP_NAME"),
		ServiceJWTSecret:    os.Getenv("SERVICE_JWT_SECRET"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}
