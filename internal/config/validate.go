package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	var errs []error

	for name, addr := range map[string]string{
		"server.http_addr": c.Server.HTTPAddr,
		"server.ws_addr":   c.Server.WSAddr,
	} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", name, addr, err))
		}
	}

	if c.Server.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_message_bytes must be positive, got %d", c.Server.MaxMessageBytes))
	}
	if c.Server.KeepAliveSeconds <= 0 {
		errs = append(errs, fmt.Errorf("server.keep_alive_seconds must be positive, got %d", c.Server.KeepAliveSeconds))
	}
	if c.Server.SubscriberBacklog <= 0 {
		errs = append(errs, fmt.Errorf("server.subscriber_backlog must be positive, got %d", c.Server.SubscriberBacklog))
	}

	a := c.Animation
	if a.EnterDuration < 0 || a.MoveDuration < 0 || a.ExitDuration < 0 || a.PlaceholderDuration < 0 {
		errs = append(errs, fmt.Errorf("animation durations must not be negative"))
	}
	if a.LineDisplayOffset < 0 || a.LineDisplayOffset > 1 {
		errs = append(errs, fmt.Errorf("animation.line_display_offset must be within [0,1], got %v", a.LineDisplayOffset))
	}

	conv := c.Conversion
	if conv.TranslationToleranceMs < 0 || conv.FinalLineTailMs < 0 ||
		conv.LRCDefaultDurationMs < 0 || conv.LRCMaxGapMs < 0 {
		errs = append(errs, fmt.Errorf("conversion timings must not be negative"))
	}

	if c.Redis.Enabled && strings.TrimSpace(c.Redis.URL) == "" {
		errs = append(errs, fmt.Errorf("redis.enabled requires redis.url or REDIS_URL"))
	}

	if c.Translate.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("translate.concurrency must be positive, got %d", c.Translate.Concurrency))
	}
	if c.Translate.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
