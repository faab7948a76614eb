package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// getEnv returns the variable or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt falls back to defaultValue when the variable does not parse.
func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

// getDuration parses the variable, then defaultValue, then settles on 30s.
func getDuration(key, defaultValue string) time.Duration {
	for _, v := range []string{os.Getenv(key), defaultValue} {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

func (c *Config) environmentIn(names ...string) bool {
	env := strings.ToLower(c.Environment)
	for _, n := range names {
		if env == n {
			return true
		}
	}
	return false
}

func (c *Config) IsLocal() bool {
	return c.environmentIn("local", "development", "dev")
}

func (c *Config) IsProduction() bool {
	return c.environmentIn("production", "prod")
}

func (c *Config) IsTest() bool {
	return c.environmentIn("test", "testing")
}

// IsLambda reports whether the process runs inside the Lambda runtime.
func IsLambda() bool {
	for _, key := range []string{"AWS_LAMBDA_FUNCTION_NAME", "AWS_LAMBDA_RUNTIME_API", "LAMBDA_TASK_ROOT"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
