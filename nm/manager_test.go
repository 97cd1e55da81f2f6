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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ipmi "github.com/vmware/goipmi-nm"
)

func newTestManager(t *testing.T, s *Simulator) (*Manager, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	m := NewManager(s)
	m.Node = t.Name()
	m.TempDir = t.TempDir()
	m.Log = log

	return m, hook
}

func TestManagerDiscover(t *testing.T) {
	s := NewSimulator()
	m, _ := newTestManager(t, s)
	ctx := context.Background()

	addr, err := m.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, SlaveAddress{Address: "0x2c", Channel: "0x06"}, addr)

	_, err = m.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Dumps())

	// the probe went to Node Manager, not the BMC
	sent := s.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, CommandGetVersion, sent[0].Command)

	files, err := os.ReadDir(m.TempDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestManagerNotDetected(t *testing.T) {
	s := NewSimulator()
	s.RemoveSDRRecord()
	m, _ := newTestManager(t, s)
	ctx := context.Background()

	_, err := m.Discover(ctx)
	assert.Equal(t, ErrNotDetected, err)

	_, err = m.Version(ctx)
	assert.True(t, errors.Is(err, ErrNotDetected))
	assert.Contains(t, err.Error(), "detection failed previously")
	assert.Equal(t, 1, s.Dumps())
	assert.Empty(t, s.Sent())
}

func TestManagerNotResponding(t *testing.T) {
	s := NewSimulator()
	s.SetHandler(CommandGetVersion, func([]byte) ([]byte, error) {
		return nil, ipmi.ErrNodeBusy
	})
	m, hook := newTestManager(t, s)
	ctx := context.Background()

	_, err := m.Discover(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDetected))
	assert.Contains(t, err.Error(), "not responding")
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	err = m.Control(ctx, &Control{Scope: ScopeGlobal, Enable: true})
	assert.True(t, errors.Is(err, ErrNotDetected))
	assert.Equal(t, 1, s.Dumps())
	assert.Len(t, s.Sent(), 1)
}

type failingDump struct {
	*Simulator
	calls int
}

func (f *failingDump) DumpSDR(ctx context.Context, path string) error {
	f.calls++
	return errors.New("sdr dump failed")
}

func TestManagerDumpFailureIsRetried(t *testing.T) {
	f := &failingDump{Simulator: NewSimulator()}
	m := NewManager(f)
	m.TempDir = t.TempDir()
	ctx := context.Background()

	_, err := m.Discover(ctx)
	assert.EqualError(t, err, "sdr dump failed")
	_, err = m.Discover(ctx)
	assert.EqualError(t, err, "sdr dump failed")
	assert.Equal(t, 2, f.calls)
}

// cancelledProbe cancels the caller's context on the first command it sees
type cancelledProbe struct {
	*Simulator
	cancel context.CancelFunc
}

func (c *cancelledProbe) SendRaw(ctx context.Context, bridge *ipmi.Bridge, cmd []string) ([]string, error) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		return nil, ctx.Err()
	}
	return c.Simulator.SendRaw(ctx, bridge, cmd)
}

func TestManagerCancelledProbeIsRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &cancelledProbe{Simulator: NewSimulator(), cancel: cancel}
	m, _ := newTestManager(t, c.Simulator)
	m.transport = c

	_, err := m.Discover(ctx)
	assert.Equal(t, context.Canceled, err)

	addr, err := m.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.SlaveAddress(), addr)
	assert.Equal(t, 2, c.Dumps())
}

func TestManagerSetAddress(t *testing.T) {
	s := NewSimulator()
	m, _ := newTestManager(t, s)
	m.SetAddress(s.SlaveAddress())

	v, err := m.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Version{NM: "3.0", IPMI: "3.0", Patch: "7", Firmware: "1.2"}, v)
	assert.Equal(t, 0, s.Dumps())

	// a wrong address is not corrected
	m.SetAddress(SlaveAddress{Address: "0x2c", Channel: "0x00"})
	_, err = m.Version(context.Background())
	assert.Equal(t, ipmi.ErrInvalidCommand, err)
}

func TestManagerPolicies(t *testing.T) {
	s := NewSimulator()
	m, _ := newTestManager(t, s)
	ctx := context.Background()
	id := PolicyID{Domain: DomainPlatform, PolicyID: 123}

	_, err := m.Policy(ctx, id)
	assert.Equal(t, ipmi.ErrNmPolicyID, err)

	require.NoError(t, m.SetPolicy(ctx, temperaturePolicy()))

	info, err := m.Policy(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &PolicyInfo{
		Domain:           DomainPlatform,
		Enabled:          true,
		PerDomainEnabled: true,
		GlobalEnabled:    true,
		CreatedByNM:      true,
		Trigger:          TriggerTemperature,
		PowerPolicy:      true,
		CPUCorrection:    CPUCorrectionAuto,
		Storage:          StoragePersistent,
		Action:           ActionAlert,
		PowerDomain:      PowerDomainPrimary,
		TargetLimit:      1000,
		CorrectionTime:   2000,
		TriggerLimit:     100,
		ReportingPeriod:  600,
	}, info)

	require.NoError(t, m.Control(ctx, &Control{Scope: ScopePolicy, Domain: DomainPlatform, PolicyID: 123}))
	require.NoError(t, m.Control(ctx, &Control{Scope: ScopeDomain, Domain: DomainPlatform}))
	require.NoError(t, m.Control(ctx, &Control{Scope: ScopeGlobal}))

	info, err = m.Policy(ctx, id)
	require.NoError(t, err)
	assert.False(t, info.Enabled)
	assert.False(t, info.PerDomainEnabled)
	assert.False(t, info.GlobalEnabled)

	err = m.Control(ctx, &Control{Scope: ScopePolicy, Domain: DomainCPU, PolicyID: 123, Enable: true})
	assert.Equal(t, ipmi.ErrNmPolicyID, err)

	require.NoError(t, m.RemovePolicy(ctx, id))
	_, err = m.Policy(ctx, id)
	assert.Equal(t, ipmi.ErrNmPolicyID, err)
	assert.Equal(t, ipmi.ErrNmPolicyID, m.RemovePolicy(ctx, id))
}

func TestManagerSuspend(t *testing.T) {
	s := NewSimulator()
	m, _ := newTestManager(t, s)
	ctx := context.Background()
	id := PolicyID{Domain: DomainPlatform, PolicyID: 123}

	periods := []SuspendPeriod{
		{Start: 20, Stop: 100, Days: []Day{Monday, Tuesday}},
		{Start: 30, Stop: 150, Days: []Day{Friday, Sunday}},
	}
	suspend := &Suspend{Domain: DomainPlatform, PolicyID: 123, Periods: periods}

	assert.Equal(t, ipmi.ErrNmPolicyID, m.SetPolicySuspend(ctx, suspend))

	require.NoError(t, m.SetPolicy(ctx, temperaturePolicy()))
	require.NoError(t, m.SetPolicySuspend(ctx, suspend))

	result, err := m.PolicySuspend(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, periods, result)

	require.NoError(t, m.RemovePolicySuspend(ctx, id))
	result, err = m.PolicySuspend(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestManagerCapabilities(t *testing.T) {
	s := NewSimulator()
	m, _ := newTestManager(t, s)

	c, err := m.Capabilities(context.Background(), &CapabilitiesQuery{
		Domain:      DomainCPU,
		Trigger:     TriggerPower,
		PowerDomain: PowerDomainSecondary,
	})
	require.NoError(t, err)
	assert.Equal(t, &Capabilities{
		MaxPolicies:        16,
		MaxLimit:           4096,
		MinLimit:           0,
		MinCorrectionTime:  1000,
		MaxCorrectionTime:  600000,
		MinReportingPeriod: 1,
		MaxReportingPeriod: 3600,
		Domain:             DomainCPU,
		PowerDomain:        PowerDomainSecondary,
	}, c)
}

func TestManagerStatistics(t *testing.T) {
	now := time.Unix(0x40200100, 0)
	s := NewSimulator()
	s.Clock = func() time.Time { return now }
	m, _ := newTestManager(t, s)
	ctx := context.Background()

	st, err := m.Statistics(ctx, &StatisticsQuery{Scope: ScopeGlobal, Domain: DomainPlatform, Parameter: StatisticsPower})
	require.NoError(t, err)
	assert.Equal(t, uint16(180), st.CurrentValue)
	assert.Equal(t, uint16(120), st.MinimumValue)
	assert.Equal(t, uint16(320), st.MaximumValue)
	assert.Equal(t, uint16(210), st.AverageValue)
	assert.Equal(t, "2004-02-03T20:13:52", st.Timestamp)
	assert.True(t, st.AdministrativeEnabled)
	assert.True(t, st.MeasurementState)
	assert.False(t, st.ActivationState)

	require.NoError(t, m.ResetStatistics(ctx, &StatisticsQuery{Scope: ScopeGlobal, Domain: DomainPlatform}))
	now = now.Add(time.Minute)

	st, err = m.Statistics(ctx, &StatisticsQuery{Scope: ScopeGlobal, Parameter: StatisticsResponseTime})
	require.NoError(t, err)
	assert.Equal(t, uint16(180), st.MaximumValue)
	assert.Equal(t, uint32(60), st.ReportingPeriod)
	assert.Equal(t, "2004-02-03T20:14:52", st.Timestamp)

	// policy statistics need the policy
	q := &StatisticsQuery{Scope: ScopePolicy, Domain: DomainPlatform, PolicyID: 123, Parameter: StatisticsPower}
	_, err = m.Statistics(ctx, q)
	assert.Equal(t, ipmi.ErrNmPolicyID, err)

	require.NoError(t, m.SetPolicy(ctx, temperaturePolicy()))
	_, err = m.Statistics(ctx, q)
	require.NoError(t, err)
}

func TestManagerInvalidParameters(t *testing.T) {
	s := NewSimulator()
	m, _ := newTestManager(t, s)
	m.SetAddress(s.SlaveAddress())

	err := m.SetPolicy(context.Background(), &Policy{Domain: DomainCPU})
	assert.True(t, errors.Is(err, ErrInvalidParameters))
	assert.Empty(t, s.Sent())
}

func TestManagerCorruptedResponse(t *testing.T) {
	s := NewSimulator()
	s.SetHandler(CommandGetVersion, func([]byte) ([]byte, error) {
		return []byte{0x05}, nil
	})
	m, hook := newTestManager(t, s)

	_, err := m.Version(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptedResponse))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "57 01 00 05", hook.LastEntry().Data["rsp"])
}

func TestManagerStatisticsInvalidTimestamp(t *testing.T) {
	s := NewSimulator()
	s.SetHandler(CommandGetStatistics, func([]byte) ([]byte, error) {
		return []byte{
			0x80, 0x00, 0x20, 0x00, 0xF0, 0x00, 0x60, 0x00,
			0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x01, 0x00, 0x00, 0xF0,
		}, nil
	})
	m, hook := newTestManager(t, s)
	m.SetAddress(s.SlaveAddress())

	st, err := m.Statistics(context.Background(), &StatisticsQuery{Scope: ScopeGlobal, Domain: DomainPlatform, Parameter: StatisticsPower})
	require.NoError(t, err)
	assert.Equal(t, InvalidTime, st.Timestamp)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, t.Name(), hook.LastEntry().Data["node"])
}
