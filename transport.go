// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package ipmi

import (
	"context"
	"fmt"
)

// Transport sends raw IPMI requests and reads the SDR repository
type Transport interface {
	// SendRaw sends "0xHH" request tokens, optionally bridged to bridge,
	// and returns the response data tokens without the completion code.
	SendRaw(ctx context.Context, bridge *Bridge, cmd []string) ([]string, error)
	// DumpSDR writes the binary SDR repository to path.
	DumpSDR(ctx context.Context, path string) error
}

// NewTransport returns an ipmitool based Transport for the given Connection
func NewTransport(c *Connection) (Transport, error) {
	switch c.Interface {
	case "", "lan", "lanplus", "open":
	default:
		return nil, fmt.Errorf("unsupported interface: %s", c.Interface)
	}

	if c.SSHHost != "" {
		return NewSSHTool(c), nil
	}
	return NewTool(c), nil
}
