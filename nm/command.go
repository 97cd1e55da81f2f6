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

// Package nm encodes Intel Node Manager OEM commands as ipmitool raw
// arguments and decodes their responses.
package nm

import (
	ipmi "github.com/vmware/goipmi-nm"
)

// Intel Node Manager commands, sent with the OEM group network function
// and the Intel manufacturer ID.
const (
	CommandPolicyControl   = ipmi.Command(0xC0)
	CommandSetPolicy       = ipmi.Command(0xC1)
	CommandGetPolicy       = ipmi.Command(0xC2)
	CommandSetSuspend      = ipmi.Command(0xC5)
	CommandGetSuspend      = ipmi.Command(0xC6)
	CommandResetStatistics = ipmi.Command(0xC7)
	CommandGetStatistics   = ipmi.Command(0xC8)
	CommandGetCapabilities = ipmi.Command(0xC9)
	CommandGetVersion      = ipmi.Command(0xCA)
)

var commandNames = map[ipmi.Command]string{
	CommandPolicyControl:   "policy control",
	CommandSetPolicy:       "set policy",
	CommandGetPolicy:       "get policy",
	CommandSetSuspend:      "set policy suspend",
	CommandGetSuspend:      "get policy suspend",
	CommandResetStatistics: "reset statistics",
	CommandGetStatistics:   "get statistics",
	CommandGetCapabilities: "get capabilities",
	CommandGetVersion:      "get version",
}

// CommandName returns a readable name of an Intel Node Manager command
func CommandName(c ipmi.Command) string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return ipmi.Hex(uint8(c))
}

// PolicyID addresses a policy within a domain
type PolicyID struct {
	Domain   Domain `json:"domain_id" yaml:"domain_id"`
	PolicyID uint8  `json:"policy_id" yaml:"policy_id"`
}

// request starts an Intel Node Manager command: netfn, command, Intel ID
func request(cmd ipmi.Command, data ...uint8) *ipmi.Request {
	return &ipmi.Request{
		NetworkFunction: ipmi.NetworkFunctionOEMGroup,
		Command:         cmd,
		Data:            append(ipmi.OemIntel.Bytes(), data...),
	}
}

func (r PolicyID) bytes() []uint8 {
	return []uint8{domains.code(r.Domain), r.PolicyID}
}

// GetPolicy returns the raw Get Policy command
func GetPolicy(id PolicyID) ([]string, error) {
	if err := id.validate(CommandGetPolicy); err != nil {
		return nil, err
	}
	return request(CommandGetPolicy, id.bytes()...).Strings(), nil
}

// RemovePolicy returns the raw command that removes a policy.
// It is a Set Policy with a zero body, the first zero byte selects removal.
func RemovePolicy(id PolicyID) ([]string, error) {
	if err := id.validate(CommandSetPolicy); err != nil {
		return nil, err
	}
	data := append(id.bytes(), make([]uint8, 12)...)
	return request(CommandSetPolicy, data...).Strings(), nil
}

// GetPolicySuspend returns the raw Get Policy Suspend Periods command
func GetPolicySuspend(id PolicyID) ([]string, error) {
	if err := id.validate(CommandGetSuspend); err != nil {
		return nil, err
	}
	return request(CommandGetSuspend, id.bytes()...).Strings(), nil
}

// RemovePolicySuspend returns the raw Set Policy Suspend Periods command
// with zero periods.
func RemovePolicySuspend(id PolicyID) ([]string, error) {
	if err := id.validate(CommandSetSuspend); err != nil {
		return nil, err
	}
	return request(CommandSetSuspend, append(id.bytes(), 0x00)...).Strings(), nil
}
