// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// sdrSignature starts the body of the Intel NM discovery OEM record (type C0h):
// Intel manufacturer ID, record subtype 0Dh and version 01h. The next two
// bytes are the NM slave address and channel number (bits 7:4).
const sdrSignature = "5701000d01"

// SlaveAddress locates Node Manager behind the BMC
type SlaveAddress struct {
	Address string `json:"address" yaml:"address"`
	Channel string `json:"channel" yaml:"channel"`
}

// ScanSlaveAddress searches an SDR dump for the Node Manager discovery record.
// Only the first record is used. ok is false when there is none.
func ScanSlaveAddress(sdr []byte) (addr SlaveAddress, ok bool) {
	data := hex.EncodeToString(sdr)

	i := strings.Index(data, sdrSignature)
	if i == -1 {
		return addr, false
	}

	rest := data[i+len(sdrSignature):]
	if len(rest) < 4 {
		return addr, false
	}

	// the channel is the high nibble of the second byte
	return SlaveAddress{
		Address: "0x" + rest[0:2],
		Channel: "0x0" + rest[2:3],
	}, true
}

// ReadSlaveAddress runs ScanSlaveAddress on an SDR dump file
func ReadSlaveAddress(path string) (SlaveAddress, bool, error) {
	sdr, err := os.ReadFile(path)
	if err != nil {
		return SlaveAddress{}, false, errors.Wrap(err, "read SDR dump")
	}
	addr, ok := ScanSlaveAddress(sdr)
	return addr, ok, nil
}
