package config

import (
	"fmt"
	"strings"
)

// Validate performs fail-fast validation of all configuration values.
// It returns a wrapped sentinel error for the first failing check so
// callers can test with errors.Is.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %.2f not in [0, 2]", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > 65536 {
		return fmt.Errorf("%w: %d not in (0, 65536]", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: %d not in [1, 20]", ErrInvalidTopK, c.TopK)
	}
	if len(c.Rerank.Keywords) == 0 {
		return ErrNoRerankKeywords
	}

	if c.BasePort < 1 || c.BasePort > 65535 {
		return fmt.Errorf("%w: base_port %d not in [1, 65535]", ErrInvalidPort, c.BasePort)
	}
	if c.MaxPortTries < 1 || c.BasePort+c.MaxPortTries-1 > 65535 {
		return fmt.Errorf("%w: scan range [%d, %d] exceeds valid ports",
			ErrInvalidPort, c.BasePort, c.BasePort+c.MaxPortTries-1)
	}

	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("invalid rate_limit.rps %.2f: must not be negative", c.RateLimit.RPS)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("invalid rate_limit.burst %d: must be at least 1", c.RateLimit.Burst)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk_size %d: must be positive", c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("invalid overlap %d: must be in [0, chunk_size)", c.Overlap)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d not in [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}

	return nil
}
