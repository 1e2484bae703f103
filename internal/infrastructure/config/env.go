package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
)

// envOverrides maps each setting to its variables, first non-empty wins.
var envOverrides = []struct {
	names []string
	apply func(*domain.Config, string)
}{
	{[]string{"MATRIXLLM_BASE_URL", "MATRIXSH_BASE_URL"}, func(c *domain.Config, v string) { c.Gateway.BaseURL = v }},
	{[]string{"MATRIXLLM_API_KEY", "MATRIXSH_API_KEY"}, func(c *domain.Config, v string) { c.Gateway.APIKey = v }},
	{[]string{"MATRIXLLM_TOKEN", "MATRIXSH_TOKEN"}, func(c *domain.Config, v string) { c.Gateway.Token = v }},
	{[]string{"MATRIXLLM_MODEL", "MATRIXSH_MODEL"}, func(c *domain.Config, v string) { c.Gateway.Model = v }},
	{[]string{"MATRIXSH_MODE"}, func(c *domain.Config, v string) { c.Shell.Mode = v }},
}

func applyEnv(cfg domain.Config) domain.Config {
	for _, override := range envOverrides {
		for _, name := range override.names {
			if value := strings.TrimSpace(os.Getenv(name)); value != "" {
				override.apply(&cfg, value)
				break
			}
		}
	}
	return cfg
}

// LoadDotEnv reads KEY=value files in order; later files win over earlier
// ones, and variables already present in the environment are never replaced.
func LoadDotEnv(paths ...string) {
	combined := map[string]string{}
	for _, path := range paths {
		for key, value := range ParseDotEnv(path) {
			combined[key] = value
		}
	}
	for key, value := range combined {
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}

// ParseDotEnv parses one .env file. Comments, blank lines and an optional
// export prefix are accepted; matching surrounding quotes are removed.
func ParseDotEnv(path string) map[string]string {
	result := map[string]string{}
	file, err := os.Open(path)
	if err != nil {
		return result
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		if key != "" {
			result[key] = value
		}
	}
	return result
}
