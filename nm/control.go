// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

// Control is the request data of Enable/Disable Policy Control
type Control struct {
	Scope    Scope  `json:"scope" yaml:"scope"`
	Enable   bool   `json:"enable" yaml:"enable"`
	Domain   Domain `json:"domain_id,omitempty" yaml:"domain_id,omitempty"`
	PolicyID uint8  `json:"policy_id,omitempty" yaml:"policy_id,omitempty"`
}

// policy control flags, indexed by scope, the enable bit is ORed in
var controlFlags = map[Scope]uint8{
	ScopeGlobal: 0x00,
	ScopeDomain: 0x02,
	ScopePolicy: 0x04,
}

const controlEnable = 0x01

// ControlPolicies returns the raw Enable/Disable Policy Control command.
// Domain and policy ID are sent as zero when the scope does not use them.
func ControlPolicies(c *Control) ([]string, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	flags := controlFlags[c.Scope]
	if c.Enable {
		flags |= controlEnable
	}

	var domain, policy uint8
	switch c.Scope {
	case ScopeDomain:
		domain = domains.code(c.Domain)
	case ScopePolicy:
		domain = domains.code(c.Domain)
		policy = c.PolicyID
	}

	return request(CommandPolicyControl, flags, domain, policy).Strings(), nil
}
