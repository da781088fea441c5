package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBudget(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateOptimizer(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validateParsing(); err != nil {
		return err
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths: api_bind must not be empty")
	}
	return nil
}

func (c *Config) validateBudget() error {
	if c.Budget.Daily <= 0 {
		return fmt.Errorf("budget: daily must be positive, got %v", c.Budget.Daily)
	}
	if c.Budget.WarningUtilization <= 0 || c.Budget.WarningUtilization >= 1 {
		return fmt.Errorf("budget: warning_utilization must be in (0, 1), got %v", c.Budget.WarningUtilization)
	}
	if c.Budget.WindowHours < 0 {
		return fmt.Errorf("budget: window_hours must not be negative, got %d", c.Budget.WindowHours)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache: capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache: ttl_hours must not be negative, got %d", c.Cache.TTLHours)
	}
	return nil
}

func (c *Config) validateOptimizer() error {
	if c.Optimizer.SizeThresholdBytes <= 0 {
		return fmt.Errorf("optimizer: size_threshold_bytes must be positive, got %d", c.Optimizer.SizeThresholdBytes)
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	if c.Transcriber.PerMinuteRate < 0 {
		return fmt.Errorf("transcriber: per_minute_rate must not be negative, got %v", c.Transcriber.PerMinuteRate)
	}
	if c.Transcriber.MaxRetries < 0 {
		return fmt.Errorf("transcriber: max_retries must not be negative, got %d", c.Transcriber.MaxRetries)
	}
	if c.Transcriber.TimeoutSeconds < 0 {
		return fmt.Errorf("transcriber: timeout_seconds must not be negative, got %d", c.Transcriber.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateParsing() error {
	if c.Parsing.PerRequestCost < 0 {
		return fmt.Errorf("parsing: per_request_cost must not be negative, got %v", c.Parsing.PerRequestCost)
	}
	return nil
}
