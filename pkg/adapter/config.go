package adapter

import (
	"fmt"
	"time"
)

// ConnectionConfig carries the credentials and pool settings for one logical
// connection. It is immutable once handed to an adapter constructor. The
// credential fields are never logged in plaintext; see String.
type ConnectionConfig struct {
	// ConnectionID is the identifier the connection registry keys this
	// connection by.
	ConnectionID string `json:"connectionId"`

	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	DatabaseName string `json:"databaseName,omitempty"`

	// ConnectionString, when set, takes precedence over the discrete fields for
	// engines that accept a DSN.
	ConnectionString string `json:"connectionString,omitempty"`

	// APIKey and Environment are used by hosted vector engines.
	APIKey      string `json:"apiKey,omitempty"`
	Environment string `json:"environment,omitempty"`

	SSL     bool   `json:"ssl,omitempty"`
	SSLMode string `json:"sslMode,omitempty"`

	// Pool settings. Zero values are replaced with the package defaults from
	// pkg/config when the adapter is constructed by the factory.
	MaxPoolSize    int32         `json:"maxPoolSize,omitempty"`
	ConnectTimeout time.Duration `json:"connectTimeout,omitempty"`
	IdleTimeout    time.Duration `json:"idleTimeout,omitempty"`
}

// String renders the configuration with credentials redacted. This is the only
// representation that may reach logs.
func (c ConnectionConfig) String() string {
	return fmt.Sprintf("ConnectionConfig{id=%s host=%s port=%d database=%s username=%s password=%s apiKey=%s}",
		c.ConnectionID, c.Host, c.Port, c.DatabaseName, redact(c.Username), redact(c.Password), redact(c.APIKey))
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
