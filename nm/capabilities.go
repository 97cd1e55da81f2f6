// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

// power policy bit of the Get Capabilities policy type byte
const capabilitiesPowerPolicy = 0x10

const capabilitiesLen = responseHeaderLen + 18

// CapabilitiesQuery is the request data of Get Capabilities
type CapabilitiesQuery struct {
	Domain      Domain      `json:"domain_id" yaml:"domain_id"`
	Trigger     Trigger     `json:"policy_trigger" yaml:"policy_trigger"`
	PowerDomain PowerDomain `json:"power_domain" yaml:"power_domain"`
}

// Capabilities is the response data of Get Capabilities
type Capabilities struct {
	MaxPolicies        uint8       `json:"max_policies" yaml:"max_policies"`
	MaxLimit           uint16      `json:"max_limit_value" yaml:"max_limit_value"`
	MinLimit           uint16      `json:"min_limit_value" yaml:"min_limit_value"`
	MinCorrectionTime  uint32      `json:"min_correction_time" yaml:"min_correction_time"`
	MaxCorrectionTime  uint32      `json:"max_correction_time" yaml:"max_correction_time"`
	MinReportingPeriod uint16      `json:"min_reporting_period" yaml:"min_reporting_period"`
	MaxReportingPeriod uint16      `json:"max_reporting_period" yaml:"max_reporting_period"`
	Domain             Domain      `json:"domain_id" yaml:"domain_id"`
	PowerDomain        PowerDomain `json:"power_domain" yaml:"power_domain"`
}

// GetCapabilities returns the raw Get Capabilities command
func GetCapabilities(q *CapabilitiesQuery) ([]string, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	flags := triggers.code(q.Trigger) | capabilitiesPowerPolicy | powerDomains.code(q.PowerDomain)
	return request(CommandGetCapabilities, domains.code(q.Domain), flags).Strings(), nil
}

// ParseCapabilities decodes the response of Get Capabilities
func ParseCapabilities(rsp []string) (*Capabilities, error) {
	d := newDecoder(CommandName(CommandGetCapabilities), rsp, capabilitiesLen)

	c := &Capabilities{
		MaxPolicies:        d.u8(3),
		MaxLimit:           d.u16(4),
		MinLimit:           d.u16(6),
		MinCorrectionTime:  d.u32(8),
		MaxCorrectionTime:  d.u32(12),
		MinReportingPeriod: d.u16(16),
		MaxReportingPeriod: d.u16(18),
		Domain:             lookup(d, domains, d.u8(20)&0x0F),
		PowerDomain:        lookup(d, powerDomains, d.u8(20)&0x80),
	}

	if err := d.err(); err != nil {
		return nil, err
	}
	return c, nil
}
