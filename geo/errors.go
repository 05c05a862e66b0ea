package geo

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInputError signals unusable input parameters like a non-positive cell size or an angular coordinate
// reference. Operations failing with this error have not produced any partial result.
type InvalidInputError struct {
	Message string
	cause   error
}

func NewInvalidInputError(format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

func WrapInvalidInputError(cause error, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *InvalidInputError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *InvalidInputError) Unwrap() error { return e.cause }

// GeometryError signals that a single geometry cannot be measured or intersected. It is never fatal for a whole
// aggregation run, the affected feature is skipped.
type GeometryError struct {
	FeatureID string
	Reason    string
}

func NewGeometryError(featureID string, format string, args ...interface{}) *GeometryError {
	return &GeometryError{FeatureID: featureID, Reason: fmt.Sprintf(format, args...)}
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("invalid geometry of feature %s: %s", e.FeatureID, e.Reason)
}

func IsInvalidInputError(err error) bool {
	var invalidInputError *InvalidInputError
	return errors.As(err, &invalidInputError)
}

func IsGeometryError(err error) bool {
	var geometryError *GeometryError
	return errors.As(err, &geometryError)
}
