package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "STATS_CACHE_TTL_SECONDS")
	unsetEnvWithCleanup(t, "PENDING_PAYMENT_MAX_AGE_MINUTES")
	unsetEnvWithCleanup(t, "RECONCILE_SCHEDULE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.StatsCacheTTLSeconds != 60 {
		t.Fatalf("expected default stats cache TTL 60, got %d", cfg.StatsCacheTTLSeconds)
	}
	if cfg.PendingPaymentMaxAgeMin != 30 {
		t.Fatalf("expected default pending payment max age 30, got %d", cfg.PendingPaymentMaxAgeMin)
	}
	if cfg.ReconcileSchedule != "*/10 * * * *" {
		t.Fatalf("expected default reconcile schedule, got %q", cfg.ReconcileSchedule)
	}
	if cfg.PaymentEventQueue != "fees_service.payment_updates" {
		t.Fatalf("expected default payment event queue, got %q", cfg.PaymentEventQueue)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8085")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected PORT to take precedence, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_NonPositiveBatchSizeCoerced(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "RECONCILE_BATCH_SIZE", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ReconcileBatchSize != 100 {
		t.Fatalf("expected negative batch size coerced to 100, got %d", cfg.ReconcileBatchSize)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSAllowedOrigins: "https://app.classpoint.ng, https://admin.classpoint.ng ,"}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %d: %v", len(origins), origins)
	}
	if origins[0] != "https://app.classpoint.ng" || origins[1] != "https://admin.classpoint.ng" {
		t.Fatalf("unexpected origins: %v", origins)
	}

	empty := Config{}
	if got := empty.AllowedOrigins(); got != nil {
		t.Fatalf("expected nil origins for empty config, got %v", got)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
