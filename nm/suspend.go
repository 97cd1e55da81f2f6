// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

// SuspendPeriod is a recurring window in which a policy is suspended.
// Start and Stop count 6 minute units since midnight.
type SuspendPeriod struct {
	Start uint8 `json:"start" yaml:"start"`
	Stop  uint8 `json:"stop" yaml:"stop"`
	Days  []Day `json:"days" yaml:"days"`
}

// Suspend is the request data of Set Policy Suspend Periods
type Suspend struct {
	Domain   Domain          `json:"domain_id" yaml:"domain_id"`
	PolicyID uint8           `json:"policy_id" yaml:"policy_id"`
	Periods  []SuspendPeriod `json:"periods" yaml:"periods"`
}

const suspendPeriodLen = 3

// SetPolicySuspend returns the raw Set Policy Suspend Periods command
func SetPolicySuspend(s *Suspend) ([]string, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	data := []uint8{domains.code(s.Domain), s.PolicyID, uint8(len(s.Periods))}
	for _, p := range s.Periods {
		data = append(data, p.Start, p.Stop, ComposeDays(p.Days))
	}

	return request(CommandSetSuspend, data...).Strings(), nil
}

// ParsePolicySuspend decodes the response of Get Policy Suspend Periods
func ParsePolicySuspend(rsp []string) ([]SuspendPeriod, error) {
	d := newDecoder(CommandName(CommandGetSuspend), rsp, responseHeaderLen+1)

	n := int(d.u8(responseHeaderLen))
	d.need(responseHeaderLen + 1 + n*suspendPeriodLen)
	if err := d.err(); err != nil {
		return nil, err
	}

	periods := make([]SuspendPeriod, 0, n)
	for i := 0; i < n; i++ {
		base := responseHeaderLen + 1 + i*suspendPeriodLen
		periods = append(periods, SuspendPeriod{
			Start: d.u8(base),
			Stop:  d.u8(base + 1),
			Days:  ParseDays(d.u8(base + 2)),
		})
	}

	return periods, nil
}
