// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetStatistics(t *testing.T) {
	tests := []struct {
		should string
		query  StatisticsQuery
		expect string
	}{
		{
			"should reset global statistics",
			StatisticsQuery{Scope: ScopeGlobal, Domain: DomainPlatform},
			"00 00 00",
		},
		{
			"should reset policy statistics",
			StatisticsQuery{Scope: ScopePolicy, Domain: DomainPlatform, PolicyID: 111},
			"01 00 6F",
		},
		{
			"should reset a global parameter",
			StatisticsQuery{Scope: ScopeGlobal, Parameter: StatisticsResponseTime},
			"1C 00 00",
		},
		{
			"should force platform and policy 0 for a global only parameter",
			StatisticsQuery{Scope: ScopePolicy, Domain: DomainCPU, PolicyID: 7, Parameter: StatisticsUnhandledRequests},
			"1B 00 00",
		},
		{
			"should ignore the policy of global statistics",
			StatisticsQuery{Scope: ScopeGlobal, Domain: DomainMemory, PolicyID: 7},
			"00 02 00",
		},
	}

	for _, test := range tests {
		result, err := ResetStatistics(&test.query)
		require.NoError(t, err, test.should)
		assert.Equal(t, cmd("2E C7 57 01 00 "+test.expect), result, test.should)
	}
}

func TestResetStatisticsInvalid(t *testing.T) {
	_, err := ResetStatistics(&StatisticsQuery{Scope: ScopeGlobal, Domain: DomainPlatform, Parameter: StatisticsPower})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameters))
	assert.Contains(t, err.Error(), "unhandled_requests, response_time, cpu_throttling, memory_throttling, communication_failures")

	_, err = ResetStatistics(&StatisticsQuery{Scope: ScopeGlobal})
	assert.True(t, errors.Is(err, ErrInvalidParameters))

	_, err = ResetStatistics(&StatisticsQuery{Scope: ScopeDomain, Domain: DomainCPU})
	assert.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestGetStatistics(t *testing.T) {
	tests := []struct {
		should string
		query  StatisticsQuery
		expect string
	}{
		{
			"should get global power",
			StatisticsQuery{Scope: ScopeGlobal, Domain: DomainPlatform, Parameter: StatisticsPower},
			"01 00 00",
		},
		{
			"should get a global only parameter without domain",
			StatisticsQuery{Scope: ScopeGlobal, Parameter: StatisticsResponseTime},
			"1C 00 00",
		},
		{
			"should get policy power",
			StatisticsQuery{Scope: ScopePolicy, Domain: DomainPlatform, PolicyID: 111, Parameter: StatisticsPower},
			"11 00 6F",
		},
		{
			"should force platform and policy 0 for a global only parameter",
			StatisticsQuery{Scope: ScopeGlobal, Domain: DomainIO, PolicyID: 3, Parameter: StatisticsCommunicationFailures},
			"1F 00 00",
		},
		{
			"should ignore the policy for global scope",
			StatisticsQuery{Scope: ScopeGlobal, Domain: DomainCPU, PolicyID: 3, Parameter: StatisticsThrottling},
			"03 01 00",
		},
	}

	for _, test := range tests {
		result, err := GetStatistics(&test.query)
		require.NoError(t, err, test.should)
		assert.Equal(t, cmd("2E C8 57 01 00 "+test.expect), result, test.should)
	}
}

func TestGetStatisticsInvalid(t *testing.T) {
	for _, q := range []StatisticsQuery{
		{Scope: ScopeGlobal, Domain: DomainPlatform},
		{Scope: ScopePolicy, Domain: DomainPlatform, Parameter: StatisticsResponseTime},
		{Scope: ScopeGlobal, Domain: DomainPlatform, Parameter: StatisticsTrigger},
		{Scope: ScopeGlobal, Parameter: StatisticsPower},
		{Scope: ScopeDomain, Domain: DomainPlatform, Parameter: StatisticsPower},
	} {
		_, err := GetStatistics(&q)
		assert.True(t, errors.Is(err, ErrInvalidParameters), "%+v", q)
	}
}

func TestParseStatistics(t *testing.T) {
	raw := "00 00 00 80 00 20 00 F0 00 60 00 00 01 20 40 01 01 00 00 F0"

	s, err := ParseStatistics(cmd(raw))
	require.NoError(t, err)

	expect := &Statistics{
		CurrentValue:          128,
		MinimumValue:          32,
		MaximumValue:          240,
		AverageValue:          96,
		Timestamp:             "2004-02-03T20:13:52",
		ReportingPeriod:       257,
		Domain:                DomainPlatform,
		AdministrativeEnabled: true,
		OperationalState:      true,
		MeasurementState:      true,
		ActivationState:       true,
	}
	assert.Equal(t, expect, s)

	s, err = ParseStatistics(cmd("00 00 00 80 00 20 00 F0 00 60 00 FF FF FF FF 01 01 00 00 F0"))
	require.NoError(t, err)
	assert.Equal(t, InvalidTime, s.Timestamp)

	s, err = ParseStatistics(cmd("00 00 00 80 00 20 00 F0 00 60 00 10 00 00 00 01 01 00 00 21"))
	require.NoError(t, err)
	assert.Equal(t, InvalidTime, s.Timestamp)
	assert.Equal(t, DomainCPU, s.Domain)
	assert.False(t, s.AdministrativeEnabled)
	assert.True(t, s.OperationalState)

	_, err = ParseStatistics(cmd("00 00 00 80 00 20 00 F0 00 60 00 00 01 20 40 01 01 00 00"))
	require.Error(t, err)
	assert.Equal(t, ReasonWrongLength, err.(*CorruptedResponseError).Reason)

	_, err = ParseStatistics(cmd("00 00 00 80 00 20 00 F0 00 60 00 00 01 20 40 01 01 00 00 0F"))
	require.Error(t, err)
	assert.Equal(t, ReasonCorrupted, err.(*CorruptedResponseError).Reason)
}
