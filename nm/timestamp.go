// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import "time"

// IPMI timestamp ranges per IPMI section 37
const (
	UnspecifiedTimestamp = uint32(0xFFFFFFFF)
	// values up to here count seconds since BMC initialization
	InitTimestampMax = uint32(0x20000000)
)

// TimeFormat is ISO 8601 without a zone, timestamps are always UTC
const TimeFormat = "2006-01-02T15:04:05"

// InvalidTime stands in for a timestamp that could not be decoded
const InvalidTime = "1970-01-01T00:00:00"

// DecodeTimestamp converts an IPMI timestamp to TimeFormat
func DecodeTimestamp(ts uint32) (string, error) {
	if ts == UnspecifiedTimestamp || ts <= InitTimestampMax {
		return "", &InvalidTimestampError{Timestamp: ts}
	}
	return time.Unix(int64(ts), 0).UTC().Format(TimeFormat), nil
}
