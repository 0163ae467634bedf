package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func GetEnvOrDefaultInt(key string, def int) int {
	v, err := strconv.Atoi(GetEnvOrDefault(key, ""))
	if err != nil {
		return def
	}
	return v
}

func GetEnvOrDefaultBool(key string, def bool) bool {
	v, err := strconv.ParseBool(GetEnvOrDefault(key, ""))
	if err != nil {
		return def
	}
	return v
}

// GetEnvOrDefaultDuration accepts Go durations ("750ms") or whole seconds.
func GetEnvOrDefaultDuration(key string, def time.Duration) time.Duration {
	raw := GetEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// GetEnvList splits a comma separated variable, dropping empty entries.
func GetEnvList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
