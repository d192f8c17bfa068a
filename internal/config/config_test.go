package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "hotel")
	t.Setenv("DB_NAME", "hotel_booking")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Port != "8080" || c.DB.Port != "3306" {
		t.Errorf("unexpected ports %q / %q", c.Port, c.DB.Port)
	}
	if c.DB.TxTimeout != 5*time.Second {
		t.Errorf("expected 5s transaction timeout, got %s", c.DB.TxTimeout)
	}
	if c.Pricing.TaxRate.String() != "0.07" || c.Pricing.CommissionRate.String() != "0.15" {
		t.Errorf("unexpected rates %s / %s", c.Pricing.TaxRate, c.Pricing.CommissionRate)
	}
	if c.Ledger.MaxAttempts != 3 || c.Ledger.RetryBackoff != 25*time.Millisecond {
		t.Errorf("unexpected ledger config %+v", c.Ledger)
	}
	if c.RateLimit.Capacity != 60 || c.RateLimit.TTL != 10*time.Minute {
		t.Errorf("unexpected rate limit config %+v", c.RateLimit)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_USER", "hotel")
	t.Setenv("DB_NAME", "hotel_booking")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}
}

func TestLoad_RejectsRateOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("BOOKING_COMMISSION_RATE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a commission rate above 1")
	}
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_LOCK_WAIT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a malformed duration")
	}
}

func TestRateLimitConfig_Shorthands(t *testing.T) {
	c := RateLimitConfig{Capacity: 60, RefillTokens: 3, RefillInterval: time.Second, TTL: time.Second, Burst: 10, RefillEvery: 2 * time.Second}.normalized()
	if c.Capacity != 10 || c.RefillTokens != 1 || c.RefillInterval != 2*time.Second {
		t.Errorf("shorthands not applied: %+v", c)
	}
	if c.TTL != 10*time.Second {
		t.Errorf("expected TTL raised to five refill intervals, got %s", c.TTL)
	}
}

func TestRedisConfig_Address(t *testing.T) {
	cases := []struct {
		c    RedisConfig
		want string
	}{
		{RedisConfig{}, "localhost:6379"},
		{RedisConfig{Host: "cache", Port: "6380"}, "cache:6380"},
		{RedisConfig{Addr: "redis:6379", Host: "cache", Port: "6380"}, "redis:6379"},
	}
	for _, tc := range cases {
		if got := tc.c.Address(); got != tc.want {
			t.Errorf("%+v: expected %s, got %s", tc.c, tc.want, got)
		}
	}
}
