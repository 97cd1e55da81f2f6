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

// Reset Statistics modes used when no parameter is named
const (
	resetGlobal = 0x00
	resetPolicy = 0x01
)

const statisticsLen = responseHeaderLen + 17

// StatisticsQuery is the request data of Get and Reset Statistics
type StatisticsQuery struct {
	Scope     Scope               `json:"scope" yaml:"scope"`
	Domain    Domain              `json:"domain_id,omitempty" yaml:"domain_id,omitempty"`
	PolicyID  uint8               `json:"policy_id,omitempty" yaml:"policy_id,omitempty"`
	Parameter StatisticsParameter `json:"parameter_name,omitempty" yaml:"parameter_name,omitempty"`
}

// Statistics is the response data of Get Statistics
type Statistics struct {
	CurrentValue    uint16 `json:"current_value" yaml:"current_value"`
	MinimumValue    uint16 `json:"minimum_value" yaml:"minimum_value"`
	MaximumValue    uint16 `json:"maximum_value" yaml:"maximum_value"`
	AverageValue    uint16 `json:"average_value" yaml:"average_value"`
	Timestamp       string `json:"timestamp" yaml:"timestamp"`
	ReportingPeriod uint32 `json:"reporting_period" yaml:"reporting_period"`
	Domain          Domain `json:"domain_id" yaml:"domain_id"`

	AdministrativeEnabled bool `json:"administrative_enabled" yaml:"administrative_enabled"`
	OperationalState      bool `json:"operational_state" yaml:"operational_state"`
	MeasurementState      bool `json:"measurement_state" yaml:"measurement_state"`
	ActivationState       bool `json:"activation_state" yaml:"activation_state"`
}

// address returns the domain and policy bytes. Global scope never addresses
// a policy and global only parameters address neither.
func (q *StatisticsQuery) address() (uint8, uint8) {
	if IsGlobalOnly(q.Parameter) {
		return domains.code(DomainPlatform), 0
	}
	if q.Scope == ScopeGlobal {
		return domains.code(q.Domain), 0
	}
	return domains.code(q.Domain), q.PolicyID
}

// ResetStatistics returns the raw Reset Statistics command.
// Only global only parameters can be reset individually.
func ResetStatistics(q *StatisticsQuery) ([]string, error) {
	if err := q.validateReset(); err != nil {
		return nil, err
	}

	var mode uint8
	switch {
	case q.Parameter != "":
		mode = statistics[ScopeGlobal].code(q.Parameter)
	case q.Scope == ScopeGlobal:
		mode = resetGlobal
	default:
		mode = resetPolicy
	}

	domain, policy := q.address()
	return request(CommandResetStatistics, mode, domain, policy).Strings(), nil
}

// GetStatistics returns the raw Get Statistics command
func GetStatistics(q *StatisticsQuery) ([]string, error) {
	if err := q.validateGet(); err != nil {
		return nil, err
	}

	mode := statistics[q.Scope].code(q.Parameter)
	domain, policy := q.address()
	return request(CommandGetStatistics, mode, domain, policy).Strings(), nil
}

// ParseStatistics decodes the response of Get Statistics.
// A timestamp that cannot be decoded is replaced by InvalidTime.
func ParseStatistics(rsp []string) (*Statistics, error) {
	d := newDecoder(CommandName(CommandGetStatistics), rsp, statisticsLen)

	s := &Statistics{
		CurrentValue:          d.u16(3),
		MinimumValue:          d.u16(5),
		MaximumValue:          d.u16(7),
		AverageValue:          d.u16(9),
		ReportingPeriod:       d.u32(15),
		Domain:                lookup(d, domains, d.u8(19)&0x0F),
		AdministrativeEnabled: d.flag(19, 0x10),
		OperationalState:      d.flag(19, 0x20),
		MeasurementState:      d.flag(19, 0x40),
		ActivationState:       d.flag(19, 0x80),
	}

	if err := d.err(); err != nil {
		return nil, err
	}

	ts, err := DecodeTimestamp(d.u32(11))
	if err != nil {
		// IPMI has no "bad time", start of the epoch it is
		ts = InvalidTime
	}
	s.Timestamp = ts

	return s, nil
}
