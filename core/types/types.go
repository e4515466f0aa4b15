// Package types contains the shared data model for the rate engine.
package types

import (
	"rate-engine/internal/errors"
)

// Method identifies an aggregation method
type Method string

const (
	// MethodSingle returns the first value unchanged
	MethodSingle Method = "single"

	// MethodMean is the arithmetic mean
	MethodMean Method = "mean"

	// MethodMedian is the median
	MethodMedian Method = "median"

	// MethodTrimmedMean discards a fraction from each end before averaging
	MethodTrimmedMean Method = "trimmed_mean"
)

// ParseMethod validates a method name
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodSingle, MethodMean, MethodMedian, MethodTrimmedMean:
		return Method(s), nil
	case "":
		return MethodMedian, nil
	default:
		return "", errors.Newf(errors.TypeInvalidInput, "unknown aggregation method: %s", s)
	}
}

// Model identifies a rate formation model
type Model string

const (
	// ModelLabor passes the aggregated base rate through unchanged (rounded)
	ModelLabor Model = "labor"

	// ModelContractor loads the base rate with employer contributions,
	// utilization and profit
	ModelContractor Model = "contractor"
)

// ParseModel validates a model name
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelLabor, ModelContractor:
		return Model(s), nil
	case "":
		return ModelLabor, nil
	default:
		return "", errors.Newf(errors.TypeInvalidInput, "unknown rate model: %s", s)
	}
}

// RoundingMode identifies how a final rate is rounded
type RoundingMode string

const (
	// RoundingNone rounds to 2 decimal places
	RoundingNone RoundingMode = "none"

	// RoundingInt rounds to the nearest integer
	RoundingInt RoundingMode = "int"

	// RoundingTens rounds to the nearest multiple of 10
	RoundingTens RoundingMode = "10"

	// RoundingHundreds rounds to the nearest multiple of 100
	RoundingHundreds RoundingMode = "100"
)

// ParseRoundingMode validates a rounding mode name
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case RoundingNone, RoundingInt, RoundingTens, RoundingHundreds:
		return RoundingMode(s), nil
	case "":
		return RoundingNone, nil
	default:
		return "", errors.Newf(errors.TypeInvalidInput, "unknown rounding mode: %s", s)
	}
}

// State identifies the lifecycle state of a rate override
type State string

const (
	// StatePreview is an ad-hoc rate computed live, never persisted
	StatePreview State = "preview"

	// StateFixed is a persisted snapshot that bulk operations may recompute
	StateFixed State = "fixed"

	// StateLocked is a persisted snapshot protected from recomputation
	StateLocked State = "locked"
)

// Source identifies where an effective rate came from
type Source string

const (
	// SourceLocked means a locked override supplied the rate
	SourceLocked Source = "locked"

	// SourceFixed means a fixed override supplied the rate
	SourceFixed Source = "fixed"

	// SourcePreview means the rate was computed live from observations
	SourcePreview Source = "preview"

	// SourceNone means no rate could be determined
	SourceNone Source = "none"

	// SourceError means resolution failed unexpectedly
	SourceError Source = "error"
)
