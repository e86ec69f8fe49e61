package domain

import (
	"context"
)

// ConsistencyChecker repairs contradictory symptom combinations in one
// record. It is called exactly once per record that passes exclusion.
type ConsistencyChecker interface {
	Check(ctx context.Context, values []Value, recordID string) (*CheckResult, error)
}

// ResultSink receives assembled results in input order.
type ResultSink interface {
	Write(ctx context.Context, result *Result) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetClassifierConfig() *ClassifierConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
