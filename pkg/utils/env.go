package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/wiwi-waitlist/pkg/constants"
)

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetEnvBool returns defaultValue when the variable is unset or not a valid bool.
func GetEnvBool(key string, defaultValue bool) bool {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}

	return b
}

// GetEnvPositiveInt returns defaultValue when unset and an error when set to anything
// but a positive integer.
func GetEnvPositiveInt(key string, defaultValue int) (int, error) {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue, fmt.Errorf("invalid %s %q: expected a positive integer", key, v)
	}

	return n, nil
}

// GetEnvPositiveDuration is GetEnvPositiveInt for time.ParseDuration values such as "30m".
func GetEnvPositiveDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue, fmt.Errorf("invalid %s %q: expected a positive duration", key, v)
	}

	return d, nil
}

func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", constants.ServiceName)
}
