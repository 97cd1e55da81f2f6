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

package nm

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	ipmi "github.com/vmware/goipmi-nm"
)

// Manager sends Node Manager commands through a BMC.
// The Node Manager address is discovered from the SDR on first use and
// remembered, as is a failed discovery.
type Manager struct {
	// Node names the managed system in log entries
	Node string
	// TempDir holds SDR dumps during discovery, os.TempDir() if empty
	TempDir string
	Log     logrus.FieldLogger

	transport ipmi.Transport

	mu       sync.Mutex
	address  *SlaveAddress
	detected bool
	failed   bool
}

// NewManager creates a Manager that talks to the BMC through t
func NewManager(t ipmi.Transport) *Manager {
	return &Manager{
		Log:       logrus.StandardLogger(),
		transport: t,
	}
}

// Bridge returns the ipmitool bridging target for addr
func (addr SlaveAddress) Bridge() *ipmi.Bridge {
	return &ipmi.Bridge{
		Channel: addr.Channel,
		Address: addr.Address,
	}
}

// SetAddress skips discovery and uses addr for all commands
func (m *Manager) SetAddress(addr SlaveAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.address = &addr
	m.detected = true
	m.failed = false
}

func (m *Manager) log() logrus.FieldLogger {
	return m.Log.WithField("node", m.Node)
}

// Discover returns the Node Manager address, running detection if needed.
// SDR dump failures and a cancelled ctx are not remembered.
// Transport failures and cancellation of ctx are not remembered.
func (m *Manager) Discover(ctx context.Context) (SlaveAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.detected {
		return *m.address, nil
	}
	if m.failed {
		return SlaveAddress{}, errors.Wrap(ErrNotDetected, "detection failed previously")
	}

	log := m.log()
	log.Info("Start detection of Intel Node Manager")

	addr, ok, err := m.scanSDR(ctx)
	if err != nil {
		return SlaveAddress{}, err
	}
	if !ok {
		m.failed = true
		return SlaveAddress{}, ErrNotDetected
	}

	log = log.WithFields(logrus.Fields{
		"channel": addr.Channel,
		"address": addr.Address,
	})
	log.Debug("Intel Node Manager sensors present in SDR")

	// SDR can contain wrong info, try a simple command
	if _, err := m.transport.SendRaw(ctx, addr.Bridge(), GetVersion()); err != nil {
		// the caller gave up, Node Manager may still be there
		if ctx.Err() != nil {
			return SlaveAddress{}, err
		}
		m.failed = true
		log.WithError(err).Warn("Intel Node Manager is not responding")
		return SlaveAddress{}, errors.Wrapf(ErrNotDetected,
			"sensors record present in SDR but Node Manager is not responding (%s)", err)
	}

	m.address = &addr
	m.detected = true
	log.Info("Intel Node Manager detected")

	return addr, nil
}

func (m *Manager) scanSDR(ctx context.Context) (SlaveAddress, bool, error) {
	f, err := os.CreateTemp(m.TempDir, "nm-*.sdr")
	if err != nil {
		return SlaveAddress{}, false, errors.Wrap(err, "create SDR dump file")
	}
	path := f.Name()
	_ = f.Close()
	defer func() {
		_ = os.Remove(path)
	}()

	if err := m.transport.DumpSDR(ctx, path); err != nil {
		return SlaveAddress{}, false, err
	}

	return ReadSlaveAddress(path)
}

// execute sends cmd to Node Manager and returns the response tokens
func (m *Manager) execute(ctx context.Context, cmd []string) ([]string, error) {
	addr, err := m.Discover(ctx)
	if err != nil {
		m.log().WithError(err).Error("Can not obtain Intel Node Manager address")
		return nil, err
	}

	m.log().WithField("cmd", strings.Join(cmd, " ")).Debug("Executing Intel Node Manager command")
	return m.transport.SendRaw(ctx, addr.Bridge(), cmd)
}

// run encodes, sends and decodes a single command
func run[T any](ctx context.Context, m *Manager, cmd []string, err error, parse func([]string) (T, error)) (T, error) {
	var res T
	if err != nil {
		return res, err
	}

	rsp, err := m.execute(ctx, cmd)
	if err != nil {
		return res, err
	}

	res, err = parse(rsp)
	if err != nil {
		m.log().WithError(err).WithField("rsp", strings.Join(rsp, " ")).Error("Error in returned data")
	}
	return res, err
}

// discard is the parser of commands that return nothing but the Intel ID
func discard([]string) (struct{}, error) {
	return struct{}{}, nil
}

// Version runs Get Version
func (m *Manager) Version(ctx context.Context) (*Version, error) {
	return run(ctx, m, GetVersion(), nil, ParseVersion)
}

// Policy runs Get Policy
func (m *Manager) Policy(ctx context.Context, id PolicyID) (*PolicyInfo, error) {
	cmd, err := GetPolicy(id)
	return run(ctx, m, cmd, err, ParsePolicy)
}

// SetPolicy runs Set Policy
func (m *Manager) SetPolicy(ctx context.Context, p *Policy) error {
	cmd, err := SetPolicy(p)
	_, err = run(ctx, m, cmd, err, discard)
	return err
}

// RemovePolicy removes a policy with Set Policy
func (m *Manager) RemovePolicy(ctx context.Context, id PolicyID) error {
	cmd, err := RemovePolicy(id)
	_, err = run(ctx, m, cmd, err, discard)
	return err
}

// PolicySuspend runs Get Policy Suspend Periods
func (m *Manager) PolicySuspend(ctx context.Context, id PolicyID) ([]SuspendPeriod, error) {
	cmd, err := GetPolicySuspend(id)
	return run(ctx, m, cmd, err, ParsePolicySuspend)
}

// SetPolicySuspend runs Set Policy Suspend Periods
func (m *Manager) SetPolicySuspend(ctx context.Context, s *Suspend) error {
	cmd, err := SetPolicySuspend(s)
	_, err = run(ctx, m, cmd, err, discard)
	return err
}

// RemovePolicySuspend clears all suspend periods of a policy
func (m *Manager) RemovePolicySuspend(ctx context.Context, id PolicyID) error {
	cmd, err := RemovePolicySuspend(id)
	_, err = run(ctx, m, cmd, err, discard)
	return err
}

// Capabilities runs Get Capabilities
func (m *Manager) Capabilities(ctx context.Context, q *CapabilitiesQuery) (*Capabilities, error) {
	cmd, err := GetCapabilities(q)
	return run(ctx, m, cmd, err, ParseCapabilities)
}

// Control runs Enable/Disable Policy Control
func (m *Manager) Control(ctx context.Context, c *Control) error {
	cmd, err := ControlPolicies(c)
	_, err = run(ctx, m, cmd, err, discard)
	return err
}

// Statistics runs Get Statistics
func (m *Manager) Statistics(ctx context.Context, q *StatisticsQuery) (*Statistics, error) {
	cmd, err := GetStatistics(q)
	s, err := run(ctx, m, cmd, err, ParseStatistics)
	if err == nil && s.Timestamp == InvalidTime {
		m.log().Warn("Invalid timestamp in Node Manager statistics data")
	}
	return s, err
}

// ResetStatistics runs Reset Statistics
func (m *Manager) ResetStatistics(ctx context.Context, q *StatisticsQuery) error {
	cmd, err := ResetStatistics(q)
	_, err = run(ctx, m, cmd, err, discard)
	return err
}
