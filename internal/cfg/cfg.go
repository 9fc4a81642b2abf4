package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds counsel-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	RubricPath            string
	DatabaseURL           string
	RubricName            string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token(s) for the triage API, comma separated for rotation (empty = no auth)")
	fs.StringVar(&c.RubricPath, "rubric-path", "", "path to a rubric YAML file (empty = embedded default)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL to load the rubric from")
	fs.StringVar(&c.RubricName, "rubric-name", "default", "name of the rubric row to load when database-url is set")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for legal review notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// one rubric source at a time
	if c.RubricPath != "" && c.DatabaseURL != "" {
		errs = append(errs, errors.New("RUBRIC_PATH and DATABASE_URL are mutually exclusive"))
	}
	if c.DatabaseURL != "" && c.RubricName == "" {
		errs = append(errs, errors.New("RUBRIC_NAME is required when DATABASE_URL is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
