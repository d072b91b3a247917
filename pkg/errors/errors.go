// Package errors provides structured error types for the risk engine.
// Every error kind carries enough context to be logged as a structured
// zerolog event and is created with a cockroachdb/errors stack trace so
// failures inside the training pipeline can be traced back to their origin.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NotTrainedError is returned when Predict, Evaluate or a coefficient
// inspection is invoked on a model that has never been fitted.
type NotTrainedError struct {
	ModelName string
	Method    string
}

func (e *NotTrainedError) Error() string {
	return fmt.Sprintf("riskengine: %s: model is not trained yet; call Fit() before %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotTrainedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotTrainedError")
}

// NewNotTrainedError creates a NotTrainedError with a stack trace.
func NewNotTrainedError(modelName, method string) error {
	return errors.WithStack(&NotTrainedError{ModelName: modelName, Method: method})
}

// InvalidFeatureInputError is returned when a prediction request carries no
// usable feature values after unknown names have been discarded.
type InvalidFeatureInputError struct {
	Op     string
	Reason string
}

func (e *InvalidFeatureInputError) Error() string {
	return fmt.Sprintf("riskengine: %s: invalid feature input: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *InvalidFeatureInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "InvalidFeatureInputError")
}

// NewInvalidFeatureInputError creates an InvalidFeatureInputError with a stack trace.
func NewInvalidFeatureInputError(op, reason string) error {
	return errors.WithStack(&InvalidFeatureInputError{Op: op, Reason: reason})
}

// InsufficientDataError is returned when a dataset is empty or contains a
// single class, making stratified splitting or ROC-AUC undefined. The
// condition is reported explicitly instead of producing a zero metric that
// looks valid.
type InsufficientDataError struct {
	Op      string
	Samples int
	Classes int
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("riskengine: %s: insufficient data (%d samples, %d classes): %s",
		e.Op, e.Samples, e.Classes, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("samples", e.Samples).
		Int("classes", e.Classes).
		Str("reason", e.Reason).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError creates an InsufficientDataError with a stack trace.
func NewInsufficientDataError(op string, samples, classes int, reason string) error {
	return errors.WithStack(&InsufficientDataError{Op: op, Samples: samples, Classes: classes, Reason: reason})
}

// FeatureMismatchError is returned when a persisted model's stored feature
// list cannot be reconciled with the schema it is asked to score against.
// This is a contract violation and is never recovered by silent defaulting.
type FeatureMismatchError struct {
	Op       string
	Expected []string
	Got      []string
	Detail   string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("riskengine: %s: feature mismatch (expected %d features, got %d): %s",
		e.Op, len(e.Expected), len(e.Got), e.Detail)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *FeatureMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected_features", len(e.Expected)).
		Int("got_features", len(e.Got)).
		Str("detail", e.Detail).
		Str("type", "FeatureMismatchError")
}

// NewFeatureMismatchError creates a FeatureMismatchError with a stack trace.
func NewFeatureMismatchError(op string, expected, got []string, detail string) error {
	return errors.WithStack(&FeatureMismatchError{Op: op, Expected: expected, Got: got, Detail: detail})
}

// DimensionError is returned when matrix or vector dimensions do not match
// between related inputs.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("riskengine: %s: dimension mismatch on axis %d (%s): expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError is returned when an argument value is invalid for the
// requested operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("riskengine: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}
