package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ksred/reservations-migrate/internal/api"
	"github.com/ksred/reservations-migrate/internal/config"
)

func main() {
	var (
		configPath string
		subject    string
		ttl        time.Duration
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&subject, "subject", "operator", "Name recorded in the token's sub claim")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default from jwt.ttl)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatalf("jwt.secret is not set; the inspection API runs without authentication")
	}
	if ttl == 0 {
		ttl = cfg.JWT.TTL
	}

	token, err := api.IssueToken(cfg.JWT.Secret, subject, ttl, time.Now())
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
	fmt.Printf("\nExpires in %s. Send it as:\n", ttl)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
