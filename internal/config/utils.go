package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed environment values and remembers malformed ones so
// New can reject them instead of silently falling back to defaults.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return strings.TrimSpace(value), ok
}

func (r *envReader) String(key, defaultVal string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return defaultVal
}

func (r *envReader) Int(key string, defaultVal int) int {
	value, ok := r.lookup(key)
	if !ok || value == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: not an integer: %q", key, value))
		return defaultVal
	}
	return v
}

func (r *envReader) Bool(key string, defaultVal bool) bool {
	value, ok := r.lookup(key)
	if !ok || value == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: not a boolean: %q", key, value))
		return defaultVal
	}
	return v
}

func (r *envReader) Duration(key string, defaultVal time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok || value == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: not a duration: %q", key, value))
		return defaultVal
	}
	return d
}

func (r *envReader) Strings(key string, defaults []string) []string {
	if value, ok := r.lookup(key); ok {
		parts := strings.Split(value, ",")
		filtered := make([]string, 0, len(parts))
		for _, part := range parts {
			p := strings.TrimSpace(part)
			if p != "" {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}
	return defaults
}

func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}
