package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Razorpay struct {
		KeyID     string `yaml:"key_id"`
		KeySecret string `yaml:"key_secret"`
	} `yaml:"razorpay"`
	OpenRouteService struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"openrouteservice"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
}

// LoadConfig reads the yaml config and applies environment overrides.
// Secrets normally arrive through the environment, the file carries
// addresses and defaults.
func LoadConfig() Config {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("config file %s not found, using environment only: %v", path, err)
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}

	override(&cfg.Database.URL, "DATABASE_URL")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	override(&cfg.JWT.Secret, "JWT_SECRET")
	override(&cfg.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	override(&cfg.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
	override(&cfg.OpenRouteService.APIKey, "ORS_API_KEY")
	override(&cfg.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS")

	return cfg
}

func override(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
