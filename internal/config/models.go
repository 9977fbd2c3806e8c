package config

import (
	"time"
)

// ServerConfig represents the configuration for the HTTP front end
type ServerConfig struct {
	ListenAddress   string
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

// ClassifierConfig represents the configuration for batch classification
type ClassifierConfig struct {
	Workers int
}

// ModelConfig represents the locations of the optional model artifacts
type ModelConfig struct {
	Path       string
	ScalerPath string
}

// RelayConfig represents the downstream MTA that tagged messages are re-injected into
type RelayConfig struct {
	Enabled bool
	Address string
	Port    int
}

// SMTPConfig represents the configuration for the SMTP tagging filter
type SMTPConfig struct {
	Enabled        bool
	ListenAddress  string
	BlockAnomalies bool
	FlagHeader     string
	StatusHeader   string
	ModifySubject  bool
	SubjectPrefix  string
	ExemptDomains  []string
	Relay          RelayConfig
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdownTimeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		MaxBodyBytes:    c.GetInt64("server.max_body_bytes"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		ShutdownTimeout: shutdownTimeout,
		Mode:            c.GetString("server.mode"),
	}, nil
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Workers: c.GetInt("classifier.workers"),
	}
}

// GetModel returns the model artifact configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		Path:       c.GetString("model.path"),
		ScalerPath: c.GetString("model.scaler_path"),
	}
}

// GetSMTP returns the SMTP filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:        c.GetBool("smtp.enabled"),
		ListenAddress:  c.GetString("smtp.listen_address"),
		BlockAnomalies: c.GetBool("smtp.block_anomalies"),
		FlagHeader:     c.GetString("smtp.headers.flag"),
		StatusHeader:   c.GetString("smtp.headers.status"),
		ModifySubject:  c.GetBool("smtp.modify_subject"),
		SubjectPrefix:  c.GetString("smtp.subject_prefix"),
		ExemptDomains:  c.GetStringSlice("smtp.exempt_domains"),
		Relay: RelayConfig{
			Enabled: c.GetBool("smtp.relay.enabled"),
			Address: c.GetString("smtp.relay.address"),
			Port:    c.GetInt("smtp.relay.port"),
		},
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
