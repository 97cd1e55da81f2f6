// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"encoding/binary"
	"fmt"

	ipmi "github.com/vmware/goipmi-nm"
)

// responseHeaderLen is the Intel manufacturer ID echoed by every response
const responseHeaderLen = ipmi.OemIDLen

// decoder reads fixed offsets of a raw response.
// The first fault is kept and turned into a CorruptedResponseError by err().
type decoder struct {
	op     string
	data   []byte
	fault  error
	reason Reason
}

// newDecoder converts rsp tokens and checks that at least size bytes are present
func newDecoder(op string, rsp []string, size int) *decoder {
	d := &decoder{op: op}

	data, err := ipmi.RawDecode(rsp)
	if err != nil {
		d.fail(ReasonConversion, err)
		return d
	}
	d.data = data
	d.need(size)

	return d
}

func (d *decoder) fail(reason Reason, err error) {
	if d.fault == nil {
		d.fault = err
		d.reason = reason
	}
}

// need records a wrong length fault when fewer than n bytes were received.
// Trailing bytes are ignored.
func (d *decoder) need(n int) bool {
	if d.fault != nil {
		return false
	}
	if len(d.data) < n {
		d.fail(ReasonWrongLength, fmt.Errorf("%d bytes, need %d", len(d.data), n))
		return false
	}
	return true
}

func (d *decoder) u8(i int) uint8 {
	if !d.need(i + 1) {
		return 0
	}
	return d.data[i]
}

func (d *decoder) u16(i int) uint16 {
	if !d.need(i + 2) {
		return 0
	}
	return binary.LittleEndian.Uint16(d.data[i:])
}

func (d *decoder) u32(i int) uint32 {
	if !d.need(i + 4) {
		return 0
	}
	return binary.LittleEndian.Uint32(d.data[i:])
}

func (d *decoder) flag(i int, mask uint8) bool {
	return d.u8(i)&mask != 0
}

func (d *decoder) err() error {
	if d.fault == nil {
		return nil
	}
	return &CorruptedResponseError{
		Op:     d.op,
		Reason: d.reason,
		Err:    d.fault,
	}
}

// lookup maps a byte through t, recording a corrupted fault for an unknown byte
func lookup[T ~string](d *decoder, t *codeTable[T], code uint8) T {
	if d.fault != nil {
		var zero T
		return zero
	}
	name, err := t.lookup(code)
	if err != nil {
		d.fail(ReasonCorrupted, err)
	}
	return name
}
