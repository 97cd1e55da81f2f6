// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPolicySuspend(t *testing.T) {
	s := &Suspend{
		Domain:   DomainPlatform,
		PolicyID: 123,
		Periods: []SuspendPeriod{
			{Start: 20, Stop: 100, Days: []Day{Monday, Tuesday}},
			{Start: 30, Stop: 150, Days: []Day{Friday, Sunday}},
		},
	}

	result, err := SetPolicySuspend(s)
	require.NoError(t, err)
	assert.Equal(t, cmd("2E C5 57 01 00 00 7B 02 14 64 03 1E 96 50"), result)

	s.Periods = nil
	result, err = SetPolicySuspend(s)
	require.NoError(t, err)
	assert.Equal(t, cmd("2E C5 57 01 00 00 7B 00"), result)
}

func TestSetPolicySuspendInvalid(t *testing.T) {
	tests := []struct {
		should  string
		suspend Suspend
	}{
		{"should require a domain", Suspend{Periods: []SuspendPeriod{{Days: []Day{Monday}}}}},
		{
			"should limit the stop time",
			Suspend{Domain: DomainCPU, Periods: []SuspendPeriod{{Start: 1, Stop: 240, Days: []Day{Monday}}}},
		},
		{
			"should require days",
			Suspend{Domain: DomainCPU, Periods: []SuspendPeriod{{Start: 1, Stop: 2}}},
		},
		{
			"should reject unknown days",
			Suspend{Domain: DomainCPU, Periods: []SuspendPeriod{{Start: 1, Stop: 2, Days: []Day{"caturday"}}}},
		},
		{
			"should limit the number of periods",
			Suspend{Domain: DomainCPU, Periods: make([]SuspendPeriod, 6)},
		},
	}

	for _, test := range tests {
		_, err := SetPolicySuspend(&test.suspend)
		assert.True(t, errors.Is(err, ErrInvalidParameters), test.should)
	}
}

func TestParsePolicySuspend(t *testing.T) {
	periods, err := ParsePolicySuspend(cmd("00 00 00 02 08 18 03 20 50 18"))
	require.NoError(t, err)

	expect := []SuspendPeriod{
		{Start: 8, Stop: 24, Days: []Day{Monday, Tuesday}},
		{Start: 32, Stop: 80, Days: []Day{Thursday, Friday}},
	}
	assert.Equal(t, expect, periods)

	periods, err = ParsePolicySuspend(cmd("57 01 00 00"))
	require.NoError(t, err)
	assert.Empty(t, periods)

	_, err = ParsePolicySuspend(cmd("00 00 00 22 08 18 03"))
	require.Error(t, err)
	assert.Equal(t, ReasonWrongLength, err.(*CorruptedResponseError).Reason)

	_, err = ParsePolicySuspend(cmd("00 00 00"))
	assert.True(t, errors.Is(err, ErrCorruptedResponse))
}
