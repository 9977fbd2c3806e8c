package core

import "errors"

var (
	// ErrNoData is returned when a request carries no payload at all
	ErrNoData = errors.New("no data provided")
	// ErrNonNumericFeature is returned when a feature column holds a non-numeric value
	ErrNonNumericFeature = errors.New("non-numeric feature value")
)
