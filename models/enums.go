package models

type PosConnectionStatus string

const (
	PosConnectionStatusConnected    PosConnectionStatus = "connected"
	PosConnectionStatusNotConnected PosConnectionStatus = "not_connected"
)

type AnomalyType string

const (
	AnomalyTypeFlat        AnomalyType = "flat"
	AnomalyTypeUnderReport AnomalyType = "underreport"
)

type AnomalySeverity string

const (
	AnomalySeverityMedium AnomalySeverity = "medium"
	AnomalySeverityHigh   AnomalySeverity = "high"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)
