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
	"fmt"
	"sort"
)

// Domain is a power domain inside Node Manager
type Domain string

// Domain IDs
const (
	DomainPlatform   = Domain("platform")
	DomainCPU        = Domain("cpu")
	DomainMemory     = Domain("memory")
	DomainProtection = Domain("protection")
	DomainIO         = Domain("io")
)

// Trigger selects what a policy reacts to
type Trigger string

// Policy trigger types
const (
	TriggerNone        = Trigger("none")
	TriggerTemperature = Trigger("temperature")
	TriggerPower       = Trigger("power")
	TriggerReset       = Trigger("reset")
	TriggerBoot        = Trigger("boot")
)

// CPUCorrection is the aggressive CPU power correction setting of a policy
type CPUCorrection string

// CPU power correction modes, auto is the Node Manager default
const (
	CPUCorrectionAuto         = CPUCorrection("auto")
	CPUCorrectionUnaggressive = CPUCorrection("unaggressive")
	CPUCorrectionAggressive   = CPUCorrection("aggressive")
)

// Storage selects where a policy is kept
type Storage string

// Policy storage options, persistent is the Node Manager default
const (
	StoragePersistent = Storage("persistent")
	StorageVolatile   = Storage("volatile")
)

// Action is taken when a policy limit cannot be kept
type Action string

// Policy exception actions
const (
	ActionAlert    = Action("alert")
	ActionShutdown = Action("shutdown")
)

// PowerDomain selects the power supply side a policy applies to
type PowerDomain string

// Power domains
const (
	PowerDomainPrimary   = PowerDomain("primary")
	PowerDomainSecondary = PowerDomain("secondary")
)

// BootMode of a boot time policy
type BootMode string

// Boot time policy modes
const (
	BootModePower       = BootMode("power")
	BootModePerformance = BootMode("performance")
)

// Day of the week in a suspend period
type Day string

// Days of the week
const (
	Monday    = Day("monday")
	Tuesday   = Day("tuesday")
	Wednesday = Day("wednesday")
	Thursday  = Day("thursday")
	Friday    = Day("friday")
	Saturday  = Day("saturday")
	Sunday    = Day("sunday")
)

// Scope of policy control and statistics commands
type Scope string

// Scopes
const (
	ScopeGlobal = Scope("global")
	ScopeDomain = Scope("domain")
	ScopePolicy = Scope("policy")
)

// StatisticsParameter names a statistics mode
type StatisticsParameter string

// Statistics parameters
const (
	StatisticsPower                 = StatisticsParameter("power")
	StatisticsTemperature           = StatisticsParameter("temperature")
	StatisticsThrottling            = StatisticsParameter("throttling")
	StatisticsAirflow               = StatisticsParameter("airflow")
	StatisticsAirflowTemperature    = StatisticsParameter("airflow_temperature")
	StatisticsChassisPower          = StatisticsParameter("chassis_power")
	StatisticsUnhandledRequests     = StatisticsParameter("unhandled_requests")
	StatisticsResponseTime          = StatisticsParameter("response_time")
	StatisticsCPUThrottling         = StatisticsParameter("cpu_throttling")
	StatisticsMemoryThrottling      = StatisticsParameter("memory_throttling")
	StatisticsCommunicationFailures = StatisticsParameter("communication_failures")
	StatisticsTrigger               = StatisticsParameter("trigger")
)

// codeTable maps symbolic names to protocol bytes and back.
// Tables are built at init and never modified.
type codeTable[T ~string] struct {
	codes map[T]uint8
	names map[uint8]T
}

func newCodeTable[T ~string](codes map[T]uint8) *codeTable[T] {
	t := &codeTable[T]{
		codes: codes,
		names: make(map[uint8]T, len(codes)),
	}
	for name, code := range codes {
		if _, dup := t.names[code]; dup {
			panic(fmt.Sprintf("nm: duplicate code 0x%02x for %s", code, name))
		}
		t.names[code] = name
	}
	return t
}

// code returns the byte for name, which must have been validated
func (t *codeTable[T]) code(name T) uint8 {
	return t.codes[name]
}

func (t *codeTable[T]) has(name T) bool {
	_, ok := t.codes[name]
	return ok
}

// lookup fails on a byte that is not in the table
func (t *codeTable[T]) lookup(code uint8) (T, error) {
	name, ok := t.names[code]
	if !ok {
		return name, fmt.Errorf("unknown %T code 0x%02x", name, code)
	}
	return name, nil
}

// values returns the names in code order, as ozzo-validation In() arguments
func (t *codeTable[T]) values() []interface{} {
	codes := make([]int, 0, len(t.names))
	for code := range t.names {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)

	values := make([]interface{}, len(codes))
	for i, code := range codes {
		values[i] = t.names[uint8(code)]
	}
	return values
}

var (
	domains = newCodeTable(map[Domain]uint8{
		DomainPlatform:   0x00,
		DomainCPU:        0x01,
		DomainMemory:     0x02,
		DomainProtection: 0x03,
		DomainIO:         0x04,
	})

	triggers = newCodeTable(map[Trigger]uint8{
		TriggerNone:        0x00,
		TriggerTemperature: 0x01,
		TriggerPower:       0x02,
		TriggerReset:       0x03,
		TriggerBoot:        0x04,
	})

	cpuCorrections = newCodeTable(map[CPUCorrection]uint8{
		CPUCorrectionAuto:         0x00,
		CPUCorrectionUnaggressive: 0x20,
		CPUCorrectionAggressive:   0x40,
	})

	storages = newCodeTable(map[Storage]uint8{
		StoragePersistent: 0x00,
		StorageVolatile:   0x80,
	})

	actions = newCodeTable(map[Action]uint8{
		ActionAlert:    0x00,
		ActionShutdown: 0x01,
	})

	powerDomains = newCodeTable(map[PowerDomain]uint8{
		PowerDomainPrimary:   0x00,
		PowerDomainSecondary: 0x80,
	})

	bootModes = newCodeTable(map[BootMode]uint8{
		BootModePower:       0x00,
		BootModePerformance: 0x01,
	})

	scopes = []interface{}{ScopeGlobal, ScopeDomain, ScopePolicy}

	// statistics modes differ per scope, there are no domain scoped statistics
	statistics = map[Scope]*codeTable[StatisticsParameter]{
		ScopeGlobal: newCodeTable(map[StatisticsParameter]uint8{
			StatisticsPower:                 0x01,
			StatisticsTemperature:           0x02,
			StatisticsThrottling:            0x03,
			StatisticsAirflow:               0x04,
			StatisticsAirflowTemperature:    0x05,
			StatisticsChassisPower:          0x06,
			StatisticsUnhandledRequests:     0x1B,
			StatisticsResponseTime:          0x1C,
			StatisticsCPUThrottling:         0x1D, // deprecated
			StatisticsMemoryThrottling:      0x1E, // deprecated
			StatisticsCommunicationFailures: 0x1F,
		}),
		ScopePolicy: newCodeTable(map[StatisticsParameter]uint8{
			StatisticsPower:      0x11,
			StatisticsTrigger:    0x12,
			StatisticsThrottling: 0x13,
		}),
	}
)

// days are kept in week order, that is the order ParseDays returns them in
var days = []struct {
	day Day
	bit uint8
}{
	{Monday, 0x01},
	{Tuesday, 0x02},
	{Wednesday, 0x04},
	{Thursday, 0x08},
	{Friday, 0x10},
	{Saturday, 0x20},
	{Sunday, 0x40},
}

// Node Manager and IPMI interface versions reported by Get Version
var (
	nmVersions = map[uint8]string{
		0x01: "1.0",
		0x02: "1.5",
		0x03: "2.0",
		0x04: "2.5",
		0x05: "3.0",
	}

	ipmiVersions = map[uint8]string{
		0x01: "1.0",
		0x02: "2.0",
		0x03: "3.0",
	}
)

const unknownVersion = "unknown"

// Code returns the protocol byte of the day, 0 for an unknown day
func (d Day) Code() uint8 {
	for _, e := range days {
		if e.day == d {
			return e.bit
		}
	}
	return 0
}

// ComposeDays ORs the bits of the given days
func ComposeDays(ds []Day) uint8 {
	var pattern uint8
	for _, d := range ds {
		pattern |= d.Code()
	}
	return pattern
}

// ParseDays returns the days set in pattern in week order.
// Bit 7 is reserved and ignored.
func ParseDays(pattern uint8) []Day {
	ds := []Day{}
	for _, e := range days {
		if pattern&e.bit != 0 {
			ds = append(ds, e.day)
		}
	}
	return ds
}

// IsGlobalOnly reports whether p is one of the global statistics modes
// (1Bh-1Fh) that are not addressed by domain or policy.
func IsGlobalOnly(p StatisticsParameter) bool {
	code, ok := statistics[ScopeGlobal].codes[p]
	return ok && globalOnlyCode(code)
}

func globalOnlyCode(code uint8) bool {
	return code >= 0x1B && code <= 0x1F
}

func dayValues() []interface{} {
	values := make([]interface{}, len(days))
	for i, e := range days {
		values[i] = e.day
	}
	return values
}
