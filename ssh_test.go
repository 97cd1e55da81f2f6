// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package ipmi

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmware/goipmi-nm/internal/sshtest"
)

type execLog struct {
	sync.Mutex
	cmds []string
}

func (l *execLog) last() string {
	l.Lock()
	defer l.Unlock()
	if len(l.cmds) == 0 {
		return ""
	}
	return l.cmds[len(l.cmds)-1]
}

func startIpmitoolServer(t *testing.T) (*Connection, *execLog) {
	log := &execLog{}

	s, err := sshtest.Start("ops", "jump", func(cmd string, stdout, stderr io.Writer) int {
		log.Lock()
		log.cmds = append(log.cmds, cmd)
		log.Unlock()

		switch {
		case strings.Contains(cmd, "mktemp"):
			fmt.Fprint(stdout, "\x57\x01\x00\x0d\x01\x6a\xb2")
		case strings.Contains(cmd, "'0xCA'"):
			fmt.Fprintln(stdout, " 57 01 00 05 03 07 01 02")
		default:
			fmt.Fprintln(stderr, "Unable to send RAW command (channel=0x6 netfn=0x2e lun=0x0 cmd=0xc2 rsp=0x80): Unknown (0x80)")
			return 1
		}
		return 0
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return &Connection{
		Hostname:    "bmc",
		Username:    "admin",
		Password:    "secret",
		SSHHost:     "127.0.0.1",
		SSHPort:     s.Port,
		SSHUser:     "ops",
		SSHPassword: "jump",
	}, log
}

func TestSSHToolSendRaw(t *testing.T) {
	c, log := startIpmitoolServer(t)
	tr, err := NewTransport(c)
	require.NoError(t, err)

	rsp, err := tr.SendRaw(context.Background(), &Bridge{Channel: "0x06", Address: "0x2c"},
		[]string{"0x2E", "0xCA", "0x57", "0x01", "0x00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"57", "01", "00", "05", "03", "07", "01", "02"}, rsp)

	expect := "IPMI_PASSWORD='secret' 'ipmitool' '-I' 'lanplus' '-H' 'bmc' '-U' 'admin' '-E' " +
		"'-b' '0x06' '-t' '0x2c' 'raw' '0x2E' '0xCA' '0x57' '0x01' '0x00'"
	assert.Equal(t, expect, log.last())

	_, err = tr.SendRaw(context.Background(), nil, []string{"0x2E", "0xC2", "0x57", "0x01", "0x00", "0x00", "0x07"})
	require.Error(t, err)
	assert.Equal(t, ErrNmPolicyID, errors.Cause(err))
	assert.NotContains(t, err.Error(), "secret")
}

func TestSSHToolDumpSDR(t *testing.T) {
	c, log := startIpmitoolServer(t)
	tr, err := NewTransport(c)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sdr.bin")
	require.NoError(t, tr.DumpSDR(context.Background(), path))
	assert.Contains(t, log.last(), "'sdr' 'dump' \"$f\"")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x57, 0x01, 0x00, 0x0d, 0x01, 0x6a, 0xb2}, data)
}

func TestSSHToolAuth(t *testing.T) {
	c, _ := startIpmitoolServer(t)
	c.SSHPassword = "wrong"

	_, err := NewSSHTool(c).SendRaw(context.Background(), nil, []string{"0x2E", "0xCA"})
	assert.Error(t, err)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, `A='b c' 'x' 'y'`, shellCommand([]string{"A=b c"}, []string{"x", "y"}))
}
