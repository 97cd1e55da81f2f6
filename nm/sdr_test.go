// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSlaveAddress(t *testing.T) {
	addr, ok := ScanSlaveAddress([]byte("\x00\xFF\x00\xFF\x57\x01\x00\x0D\x01\x6A\xB2\x00\xFF"))
	assert.True(t, ok)
	assert.Equal(t, SlaveAddress{Address: "0x6a", Channel: "0x0b"}, addr)

	_, ok = ScanSlaveAddress([]byte("\x00\xFF\x00\xFF\x52\x01\x80\x0D\x01\x6A\xB7\x00\xFF"))
	assert.False(t, ok)

	// signature at the very end, no address bytes
	_, ok = ScanSlaveAddress([]byte("\x00\x57\x01\x00\x0D\x01"))
	assert.False(t, ok)

	// first record wins
	addr, ok = ScanSlaveAddress([]byte("\x57\x01\x00\x0D\x01\x2C\x60\x57\x01\x00\x0D\x01\x6A\xB2"))
	assert.True(t, ok)
	assert.Equal(t, SlaveAddress{Address: "0x2c", Channel: "0x06"}, addr)
}

func TestReadSlaveAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdr.bin")
	require.NoError(t, os.WriteFile(path, []byte("\x00\xFF\x00\xFF\x57\x01\x00\x0D\x01\x6A\xB2\x00\xFF"), 0600))

	addr, ok, err := ReadSlaveAddress(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0x6a", addr.Address)
	assert.Equal(t, "0x0b", addr.Channel)

	_, _, err = ReadSlaveAddress(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
