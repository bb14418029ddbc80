package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrorInvalidSalesAmount = errors.New("sales amounts must be non-negative")
