// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package ipmi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NetworkFunction identifies the functional class of an IPMI message
type NetworkFunction uint8

// Network Function Codes per section 5.1
const (
	NetworkFunctionChassis  = NetworkFunction(0x00)
	NetworkFunctionApp      = NetworkFunction(0x06)
	NetworkFunctionStorage  = NetworkFunction(0x0a)
	NetworkFunctionDcmi     = NetworkFunction(0x2c)
	NetworkFunctionOEMGroup = NetworkFunction(0x2e)
)

// Command fields on an IPMI message
type Command uint8

// Command Number Assignments (table G-1)
const (
	CommandGetDeviceID   = Command(0x01)
	CommandGetSDRRepInfo = Command(0x20)
	CommandGetSDR        = Command(0x23)
)

// ErrInvalidToken is returned for raw output that is not a single hex byte
var ErrInvalidToken = errors.New("ipmi: invalid raw token")

// Request is a raw IPMI request as accepted by ipmitool raw
type Request struct {
	NetworkFunction
	Command
	Data []byte
}

// Bytes returns netfn, command and data as one byte sequence
func (r *Request) Bytes() []byte {
	msg := make([]byte, 2+len(r.Data))
	msg[0] = uint8(r.NetworkFunction)
	msg[1] = uint8(r.Command)
	copy(msg[2:], r.Data)
	return msg
}

// Strings returns the request as ipmitool raw arguments
func (r *Request) Strings() []string {
	return RawEncode(r.Bytes())
}

// RequestFromStrings parses ipmitool raw arguments back into a Request
func RequestFromStrings(tokens []string) (*Request, error) {
	msg, err := RawDecode(tokens)
	if err != nil {
		return nil, err
	}
	if len(msg) < 2 {
		return nil, ErrShortPacket
	}
	return &Request{
		NetworkFunction: NetworkFunction(msg[0]),
		Command:         Command(msg[1]),
		Data:            msg[2:],
	}, nil
}

// Hex formats a single byte the way ipmitool raw arguments are written
func Hex(b uint8) string {
	return fmt.Sprintf("0x%02X", b)
}

// RawEncode converts bytes to "0xHH" tokens.
// ipmitool needs every byte to be a separate argument.
func RawEncode(data []byte) []string {
	buf := make([]string, 0, len(data))
	for _, b := range data {
		buf = append(buf, Hex(b))
	}
	return buf
}

// RawDecode converts tokens printed by ipmitool raw ("57", "0x57", "0X57")
// back to bytes.
func RawDecode(tokens []string) ([]byte, error) {
	buf := make([]byte, 0, len(tokens))

	for i, s := range tokens {
		s = strings.TrimPrefix(strings.ToLower(s), "0x")
		b, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidToken, "token %d %q: %s", i, tokens[i], err)
		}
		buf = append(buf, uint8(b))
	}

	return buf, nil
}

// RawFields splits ipmitool raw output, which wraps every 16 bytes, into tokens
func RawFields(output string) []string {
	return strings.Fields(output)
}
