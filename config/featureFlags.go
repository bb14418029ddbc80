package config

import (
	"os"
	"strconv"
	"strings"
)

// Anomaly-detection tuning knobs.
//
// The defaults are the calibrated production values; override only with
// domain input. Set via env:
// - REVINT_MIN_SAMPLE_DAYS (default 7)
// - REVINT_FLAT_CV_THRESHOLD (default 0.05)
// - REVINT_FLAT_MIN_DAYS (default 14)
// - REVINT_UNDERREPORT_RATIO (default 0.6)

func AnomalyMinSampleDays() int {
	return intFlagFromEnv("REVINT_MIN_SAMPLE_DAYS", 7)
}

func FlatPatternCVThreshold() float64 {
	return floatFlagFromEnv("REVINT_FLAT_CV_THRESHOLD", 0.05)
}

func FlatPatternMinDays() int {
	return intFlagFromEnv("REVINT_FLAT_MIN_DAYS", 14)
}

func UnderReportRatio() float64 {
	return floatFlagFromEnv("REVINT_UNDERREPORT_RATIO", 0.6)
}

// StrictSalesIngestion rejects whole sync batches when any row fails
// validation, instead of skipping bad rows.
//
// Set via env:
// - STRICT_SALES_INGESTION=true
func StrictSalesIngestion() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_SALES_INGESTION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func intFlagFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func floatFlagFromEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
