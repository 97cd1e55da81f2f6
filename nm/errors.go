// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinels for errors.Is
var (
	ErrCorruptedResponse = errors.New("nm: corrupted response")
	ErrInvalidTimestamp  = errors.New("nm: invalid timestamp")
	ErrInvalidParameters = errors.New("nm: invalid parameters")
	ErrNotDetected       = errors.New("nm: Intel Node Manager is not detected")
)

// Reason tells why a response could not be decoded
type Reason string

// Decode failure reasons, as they appear in the error message
const (
	ReasonWrongLength = Reason("has wrong length")
	ReasonCorrupted   = Reason("is corrupted")
	ReasonConversion  = Reason("cannot be converted")
)

// CorruptedResponseError is returned by every Parse function.
// Err holds the underlying fault for logging.
type CorruptedResponseError struct {
	Op     string
	Reason Reason
	Err    error
}

func (e *CorruptedResponseError) Error() string {
	return fmt.Sprintf("Data from Intel Node Manager %s.", e.Reason)
}

// Is matches ErrCorruptedResponse
func (e *CorruptedResponseError) Is(target error) bool {
	return target == ErrCorruptedResponse
}

// Unwrap returns the underlying fault
func (e *CorruptedResponseError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying fault for github.com/pkg/errors
func (e *CorruptedResponseError) Cause() error {
	return e.Err
}

// InvalidTimestampError is returned by DecodeTimestamp
type InvalidTimestampError struct {
	Timestamp uint32
}

func (e *InvalidTimestampError) Error() string {
	if e.Timestamp == UnspecifiedTimestamp {
		return "IPMI timestamp is invalid or unspecified"
	}
	return fmt.Sprintf("IPMI initialization is not completed, relative time is %d second", e.Timestamp)
}

// Is matches ErrInvalidTimestamp
func (e *InvalidTimestampError) Is(target error) bool {
	return target == ErrInvalidTimestamp
}

// InvalidParametersError is returned by encoders for a record that cannot be
// sent. Err is usually an ozzo-validation Errors map keyed by field.
type InvalidParametersError struct {
	Op  string
	Err error
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid %s parameters: %s", e.Op, e.Err)
}

// Is matches ErrInvalidParameters
func (e *InvalidParametersError) Is(target error) bool {
	return target == ErrInvalidParameters
}

// Unwrap returns the validation error
func (e *InvalidParametersError) Unwrap() error {
	return e.Err
}
