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
	"encoding/binary"
)

// Set Policy flag bits
const (
	policyEnabled   = 0x10 // domain byte
	policyAdd       = 0x10 // policy byte
	policyValuesLen = 10
	policyLen       = responseHeaderLen + 3 + policyValuesLen
)

// PolicyLimit is either a PowerLimit or a BootLimit
type PolicyLimit interface {
	limit() uint16
}

// PowerLimit is the target limit of a non boot policy, in watts
// for power triggers.
type PowerLimit uint16

func (l PowerLimit) limit() uint16 {
	return uint16(l)
}

// BootLimit is the target of a boot time policy
type BootLimit struct {
	Mode          BootMode `json:"boot_mode" yaml:"boot_mode"`
	CoresDisabled uint8    `json:"cores_disabled" yaml:"cores_disabled"`
}

// limit packs the mode into bit 0 and the number of cores above it
func (l BootLimit) limit() uint16 {
	return uint16(bootModes.code(l.Mode)) | uint16(l.CoresDisabled)<<1
}

// Policy is the request data of Set Policy
type Policy struct {
	Domain   Domain `json:"domain_id" yaml:"domain_id"`
	PolicyID uint8  `json:"policy_id" yaml:"policy_id"`
	Enable   bool   `json:"enable" yaml:"enable"`

	Trigger       Trigger       `json:"policy_trigger" yaml:"policy_trigger"`
	CPUCorrection CPUCorrection `json:"cpu_power_correction,omitempty" yaml:"cpu_power_correction,omitempty"`
	Storage       Storage       `json:"storage,omitempty" yaml:"storage,omitempty"`
	Action        Action        `json:"action" yaml:"action"`
	PowerDomain   PowerDomain   `json:"power_domain" yaml:"power_domain"`

	Limit           PolicyLimit `json:"target_limit" yaml:"target_limit"`
	CorrectionTime  uint32      `json:"correction_time" yaml:"correction_time"`
	TriggerLimit    uint16      `json:"trigger_limit" yaml:"trigger_limit"`
	ReportingPeriod uint16      `json:"reporting_period" yaml:"reporting_period"`
}

// PolicyInfo is the response data of Get Policy
type PolicyInfo struct {
	Domain           Domain `json:"domain_id" yaml:"domain_id"`
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	PerDomainEnabled bool   `json:"per_domain_enabled" yaml:"per_domain_enabled"`
	GlobalEnabled    bool   `json:"global_enabled" yaml:"global_enabled"`
	CreatedByNM      bool   `json:"created_by_nm" yaml:"created_by_nm"`

	Trigger       Trigger       `json:"policy_trigger" yaml:"policy_trigger"`
	PowerPolicy   bool          `json:"power_policy" yaml:"power_policy"`
	CPUCorrection CPUCorrection `json:"cpu_power_correction" yaml:"cpu_power_correction"`
	Storage       Storage       `json:"storage" yaml:"storage"`
	Action        Action        `json:"action" yaml:"action"`
	PowerDomain   PowerDomain   `json:"power_domain" yaml:"power_domain"`

	TargetLimit     uint16 `json:"target_limit" yaml:"target_limit"`
	CorrectionTime  uint32 `json:"correction_time" yaml:"correction_time"`
	TriggerLimit    uint16 `json:"trigger_limit" yaml:"trigger_limit"`
	ReportingPeriod uint16 `json:"reporting_period" yaml:"reporting_period"`
}

// withDefaults fills in the settings Node Manager defaults to
func (p Policy) withDefaults() Policy {
	if p.CPUCorrection == "" {
		p.CPUCorrection = CPUCorrectionAuto
	}
	if p.Storage == "" {
		p.Storage = StoragePersistent
	}
	switch p.Trigger {
	case TriggerNone:
		p.TriggerLimit = 0
	case TriggerBoot:
		// neither applies to boot time policies
		p.TriggerLimit = 0
		p.CorrectionTime = 0
	}
	return p
}

// SetPolicy returns the raw Set Policy command for p
func SetPolicy(p *Policy) ([]string, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	policy := p.withDefaults()

	domain := domains.code(policy.Domain)
	if policy.Enable {
		domain |= policyEnabled
	}

	flags := triggers.code(policy.Trigger) |
		cpuCorrections.code(policy.CPUCorrection) |
		storages.code(policy.Storage) |
		policyAdd

	action := actions.code(policy.Action) | powerDomains.code(policy.PowerDomain)

	values := make([]byte, policyValuesLen)
	binary.LittleEndian.PutUint16(values[0:], policy.Limit.limit())
	binary.LittleEndian.PutUint32(values[2:], policy.CorrectionTime)
	binary.LittleEndian.PutUint16(values[6:], policy.TriggerLimit)
	binary.LittleEndian.PutUint16(values[8:], policy.ReportingPeriod)

	data := append([]uint8{domain, policy.PolicyID, flags, action}, values...)
	return request(CommandSetPolicy, data...).Strings(), nil
}

// ParsePolicy decodes the response of Get Policy
func ParsePolicy(rsp []string) (*PolicyInfo, error) {
	d := newDecoder(CommandName(CommandGetPolicy), rsp, policyLen)

	info := &PolicyInfo{
		Domain:           lookup(d, domains, d.u8(3)&0x0F),
		Enabled:          d.flag(3, 0x10),
		PerDomainEnabled: d.flag(3, 0x20),
		GlobalEnabled:    d.flag(3, 0x40),
		CreatedByNM:      !d.flag(3, 0x80),
		Trigger:          lookup(d, triggers, d.u8(4)&0x0F),
		PowerPolicy:      d.flag(4, 0x10),
		CPUCorrection:    lookup(d, cpuCorrections, d.u8(4)&0x60),
		Storage:          lookup(d, storages, d.u8(4)&0x80),
		Action:           lookup(d, actions, d.u8(5)&0x01),
		PowerDomain:      lookup(d, powerDomains, d.u8(5)&0x80),
		TargetLimit:      d.u16(6),
		CorrectionTime:   d.u32(8),
		TriggerLimit:     d.u16(12),
		ReportingPeriod:  d.u16(14),
	}

	if err := d.err(); err != nil {
		return nil, err
	}
	return info, nil
}
