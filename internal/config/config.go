package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the ICUPA ordering platform.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Payment  PaymentConfig  `yaml:"payment"`
}

// DatabaseConfig holds database connection and pool sizing configuration.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RabbitMQConfig holds RabbitMQ connection configuration.
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PaymentConfig holds payment collaborator configuration.
type PaymentConfig struct {
	StripeKey  string `yaml:"stripe_key"`
	SuccessURL string `yaml:"success_url"`
	CancelURL  string `yaml:"cancel_url"`
}

// Load reads configuration from a YAML file. A .env file, when present,
// is loaded first so secrets can stay out of the YAML.
func Load(filename string) (*Config, error) {
	// Missing .env is fine; the YAML and process env are authoritative then.
	_ = godotenv.Load()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config := &Config{}
	scanner := bufio.NewScanner(file)

	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Check for section headers
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			currentSection = strings.TrimSuffix(line, ":")
			continue
		}

		// Parse key-value pairs
		if strings.Contains(line, ":") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if err := config.setValue(currentSection, key, value); err != nil {
				return nil, fmt.Errorf("failed to set config value %s.%s: %w", currentSection, key, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills values that may be omitted from the config file.
func (c *Config) applyDefaults() {
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 25
	}
	if c.Database.MinConns <= 0 {
		c.Database.MinConns = 5
	}
}

// applyEnvOverrides lets environment variables override secret values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ICUPA_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("ICUPA_RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.Payment.StripeKey = v
	}
}

// setValue sets a configuration value based on section and key.
func (c *Config) setValue(section, key, value string) error {
	switch section {
	case "database":
		return c.setDatabaseValue(key, value)
	case "rabbitmq":
		return c.setRabbitMQValue(key, value)
	case "payment":
		return c.setPaymentValue(key, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

// setDatabaseValue sets database configuration values.
func (c *Config) setDatabaseValue(key, value string) error {
	switch key {
	case "host":
		c.Database.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.Database.Port = port
	case "user":
		c.Database.User = value
	case "password":
		c.Database.Password = value
	case "database":
		c.Database.Database = value
	case "max_conns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max_conns value: %w", err)
		}
		c.Database.MaxConns = n
	case "min_conns":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid min_conns value: %w", err)
		}
		c.Database.MinConns = n
	default:
		return fmt.Errorf("unknown database key: %s", key)
	}
	return nil
}

// setRabbitMQValue sets RabbitMQ configuration values.
func (c *Config) setRabbitMQValue(key, value string) error {
	switch key {
	case "host":
		c.RabbitMQ.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.RabbitMQ.Port = port
	case "user":
		c.RabbitMQ.User = value
	case "password":
		c.RabbitMQ.Password = value
	default:
		return fmt.Errorf("unknown rabbitmq key: %s", key)
	}
	return nil
}

// setPaymentValue sets payment configuration values.
func (c *Config) setPaymentValue(key, value string) error {
	switch key {
	case "stripe_key":
		c.Payment.StripeKey = value
	case "success_url":
		c.Payment.SuccessURL = value
	case "cancel_url":
		c.Payment.CancelURL = value
	default:
		return fmt.Errorf("unknown payment key: %s", key)
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL.
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
