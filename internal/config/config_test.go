package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIServer.Port != "8081" {
		t.Errorf("APIServer.Port = %q, want %q", cfg.APIServer.Port, "8081")
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "postgres")
	}
	if cfg.Auth.JWTExpiry != 24*time.Hour {
		t.Errorf("Auth.JWTExpiry = %v, want %v", cfg.Auth.JWTExpiry, 24*time.Hour)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		t.Error("Kafka.Brokers is empty, want default broker")
	}
	if cfg.Kafka.AIRequestsTopic == "" {
		t.Error("Kafka.AIRequestsTopic is empty")
	}
}
