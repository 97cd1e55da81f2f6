/*
Copyright (c) 2014 VMware, Inc. All Rights Reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipmi

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// runner executes an ipmitool command line somewhere
type runner interface {
	// run executes argv and returns its stdout
	run(ctx context.Context, env []string, argv []string) ([]byte, error)
	// dump executes argv with a file name appended and stores that file at path
	dump(ctx context.Context, env []string, argv []string, path string) error
}

// Tool is a Transport that runs ipmitool
type Tool struct {
	*Connection
	Log logrus.FieldLogger

	runner runner
}

// NewTool creates a Tool running ipmitool on the local host
func NewTool(c *Connection) *Tool {
	return &Tool{
		Connection: c,
		Log:        logrus.StandardLogger(),
		runner:     execRunner{},
	}
}

// SendRaw runs ipmitool ... raw 0x.. 0x.. and returns the response tokens
func (t *Tool) SendRaw(ctx context.Context, bridge *Bridge, cmd []string) ([]string, error) {
	args := append(bridgeOptions(bridge), "raw")
	args = append(args, cmd...)

	log := t.Log.WithFields(logrus.Fields{
		"host": t.Hostname,
		"cmd":  strings.Join(cmd, " "),
	})
	if bridge != nil {
		log = log.WithFields(logrus.Fields{
			"channel": bridge.Channel,
			"address": bridge.Address,
		})
	}
	log.Debug("sending raw bytes")

	output, err := t.runner.run(ctx, t.env(), t.command(args...))
	if err != nil {
		log.WithError(err).Error("ipmitool raw failed")
		return nil, err
	}

	rsp := RawFields(string(output))
	log.WithField("rsp", strings.Join(rsp, " ")).Debug("raw bytes returned")
	return rsp, nil
}

// DumpSDR runs ipmitool ... sdr dump path
func (t *Tool) DumpSDR(ctx context.Context, path string) error {
	log := t.Log.WithFields(logrus.Fields{
		"host": t.Hostname,
		"file": path,
	})
	log.Debug("dumping SDR")

	if err := t.runner.dump(ctx, t.env(), t.command("sdr", "dump"), path); err != nil {
		log.WithError(err).Error("ipmitool sdr dump failed")
		return err
	}
	return nil
}

func (t *Tool) options() []string {
	intf := t.Interface
	if intf == "" {
		intf = "lanplus"
	}

	options := []string{"-I", intf}
	if t.inBand() {
		return options
	}

	options = append(options,
		"-H", t.Hostname,
		"-U", t.Username,
	)

	// password goes through IPMI_PASSWORD so it never shows up in ps or logs
	if t.Password != "" {
		options = append(options, "-E")
	}

	if t.Port != 0 {
		options = append(options, "-p", strconv.Itoa(t.Port))
	}

	return options
}

func (t *Tool) env() []string {
	if t.Password == "" || t.inBand() {
		return nil
	}
	return []string{"IPMI_PASSWORD=" + t.Password}
}

func (t *Tool) command(args ...string) []string {
	path := t.Path
	if path == "" {
		path = "ipmitool"
	}

	argv := append([]string{path}, t.options()...)
	return append(argv, args...)
}

func bridgeOptions(b *Bridge) []string {
	if b == nil {
		return []string{}
	}
	return []string{"-b", b.Channel, "-t", b.Address}
}

// toolError prefers the completion code ipmitool printed over the exit status
func toolError(cmd string, stderr string, err error) error {
	if code, ok := CompletionCodeFromString(stderr); ok {
		return errors.Wrapf(code, "run %s", cmd)
	}
	return errors.Errorf("run %s: %s (%s)", cmd, strings.TrimSpace(stderr), err)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, env []string, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), env...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, toolError(strings.Join(argv, " "), stderr.String(), err)
	}

	return stdout.Bytes(), nil
}

func (r execRunner) dump(ctx context.Context, env []string, argv []string, path string) error {
	_, err := r.run(ctx, env, append(argv, path))
	return err
}
