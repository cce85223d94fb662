package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/recommender/internal/aiconnectors"
	"github.com/recommender/internal/config"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required settings that are missing
	Present  map[string]string // Settings that are set (masked values)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig checks that the database URL and the provider credential are
// available, either from the configuration file or from the environment
func CheckRequiredConfig(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	switch {
	case cfg.Database.URL != "":
		result.Present["database.url"] = maskSecret(cfg.Database.URL)
	case os.Getenv("DATABASE_URL") != "":
		result.Present["DATABASE_URL"] = maskSecret(os.Getenv("DATABASE_URL"))
	default:
		result.Warnings = append(result.Warnings, "DATABASE_URL not set; it will be looked up in the nearest .env file")
	}

	provider := aiconnectors.Provider(cfg.Generation.Provider)
	if aiconnectors.RequiresAPIKey(provider) {
		key := aiconnectors.ResolveAPIKey(provider, cfg.Generation.APIKey)
		envNames := aiconnectors.APIKeyEnv(provider)
		if key == "" {
			result.Missing = append(result.Missing, "generation.api_key or "+strings.Join(envNames, " / "))
		} else {
			result.Present["api key ("+string(provider)+")"] = maskSecret(key)
		}
	}

	if cfg.Generation.Timeout == 0 {
		result.Warnings = append(result.Warnings, "generation.timeout is 0; a stalled provider call is bounded only by the client connection")
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(result *ConfigCheckResult) {
	fmt.Println("=== Configuration Check ===")

	if len(result.Missing) > 0 {
		fmt.Println("❌ Missing required settings:")
		for _, v := range result.Missing {
			fmt.Printf("   - %s\n", v)
		}
		fmt.Println("")
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("✓ Configured settings:")
		for _, k := range keys {
			fmt.Printf("   - %s = %s\n", k, result.Present[k])
		}
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("⚠ Warning: %s\n", w)
	}

	if len(result.Missing) == 0 {
		fmt.Println("✓ All required configuration is present")
	}

	fmt.Println("============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
