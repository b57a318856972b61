// Package config loads application settings from environment variables
// (populated from the .env file in main).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	MongoConnString string
	MongoDatabase   string
	// SQLConnString is optional; only the SQL Server catalog source needs it.
	SQLConnString     string
	SuggestServiceURL string
	SuggestTimeout    time.Duration
	TaxonomyFile      string
}

const defaultSuggestTimeout = 120 * time.Second

// LoadConfig reads settings from the environment. The Mongo connection and
// the suggestion service URL are required; everything else has a default.
func LoadConfig() (*Config, error) {
	mongoConn := os.Getenv("MONGO_CONNECTION_STRING")
	if mongoConn == "" {
		return nil, errors.New("MONGO_CONNECTION_STRING environment variable not set")
	}

	suggestURL := os.Getenv("SUGGEST_SERVICE_URL")
	if suggestURL == "" {
		return nil, errors.New("SUGGEST_SERVICE_URL environment variable not set")
	}

	timeout := defaultSuggestTimeout
	if raw := os.Getenv("SUGGEST_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid SUGGEST_TIMEOUT_SECONDS value: %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}

	taxonomyFile := os.Getenv("TAXONOMY_FILE")
	if taxonomyFile == "" {
		taxonomyFile = "configs/taxonomy.json"
	}

	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "catmap"
	}

	return &Config{
		MongoConnString:   mongoConn,
		MongoDatabase:     dbName,
		SQLConnString:     os.Getenv("SQL_CONNECTION_STRING"),
		SuggestServiceURL: suggestURL,
		SuggestTimeout:    timeout,
		TaxonomyFile:      taxonomyFile,
	}, nil
}
