package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks values the struct tags cannot express. Load calls it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0 (got %d)", c.Redis.DB)
	}
	if err := checkAddr(c.Redis.Addr); err != nil {
		return fmt.Errorf("redis.addr: %w", err)
	}
	if err := checkAddr(c.Segmenter.Addr); err != nil {
		return fmt.Errorf("segmenter.addr: %w", err)
	}
	if err := checkAddr(c.Segmenter.Listen); err != nil {
		return fmt.Errorf("segmenter.listen: %w", err)
	}
	if c.Segmenter.Timeout <= 0 {
		return fmt.Errorf("segmenter.timeout must be > 0 (got %v)", c.Segmenter.Timeout)
	}
	if c.Reader.Workers <= 0 {
		return fmt.Errorf("reader.workers must be > 0 (got %d)", c.Reader.Workers)
	}
	if c.Reader.RenderTimeout <= 0 {
		return fmt.Errorf("reader.render_timeout must be > 0 (got %v)", c.Reader.RenderTimeout)
	}
	if c.Reader.BreakerFailures == 0 {
		return fmt.Errorf("reader.breaker_failures must be > 0")
	}
	if c.Dictionary.BatchSize <= 0 {
		return fmt.Errorf("dictionary.batch_size must be > 0 (got %d)", c.Dictionary.BatchSize)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}

func checkAddr(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return err
	}
	return nil
}
