package config

import (
	"os"
	"strconv"
	"time"
)

var (
	LISTEN_ADDR = getEnv("LISTEN_ADDR", ":8080")
	DOMAIN      = getEnv("DOMAIN", "sepalink.net")
	USE_HTTPS   = getBool("USE_HTTPS", false)

	DATA_DB_URL = getEnv("DATA_DB_URL", "root@tcp(127.0.0.1:3306)/sepalink?parseTime=true")
	// TX_DB_URL points at the tigerbeetle cluster backing the accounting
	// journal. Empty disables journaling.
	TX_DB_URL = getEnv("TX_DB_URL", "")

	RATE_SOURCE_URL     = getEnv("RATE_SOURCE_URL", "http://127.0.0.1:7001/rates")
	PAYOUT_API_URL      = getEnv("PAYOUT_API_URL", "http://127.0.0.1:7002")
	PAYOUT_API_TOKEN    = getEnv("PAYOUT_API_TOKEN", "")
	DETECTOR_VERIFY_URL = getEnv("DETECTOR_VERIFY_URL", "https://wasipaid.com/receipt")

	BRIDGE_ADDRESS  = getEnv("BRIDGE_ADDRESS", "rNrvihhhjDu6xmAzJBiKmEZDkjdYufh8s4")
	ACCEPTED_ISSUER = getEnv("ACCEPTED_ISSUER", "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B")

	QUOTE_TTL        = getDuration("QUOTE_TTL", 15*time.Minute)
	RETRY_CEILING    = getInt("RETRY_CEILING", 3)
	RETRY_BASE_DELAY = getDuration("RETRY_BASE_DELAY", 30*time.Second)
	POLL_INTERVAL    = getDuration("POLL_INTERVAL", time.Minute)
	SWEEP_INTERVAL   = getDuration("SWEEP_INTERVAL", 5*time.Minute)
	// CLAIM_LEASE bounds how long a dispatch claim is honoured. A claim
	// older than this belongs to a crashed process and may be taken over.
	CLAIM_LEASE = getDuration("CLAIM_LEASE", 5*time.Minute)

	OPERATOR_CALLBACK_URL = getEnv("OPERATOR_CALLBACK_URL", "")
	OPERATOR_WEBHOOK_KEY  = getEnv("OPERATOR_WEBHOOK_KEY", "")
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
