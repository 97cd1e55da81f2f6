// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package nm

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"

	ipmi "github.com/vmware/goipmi-nm"
)

// Limits of encoded fields
const (
	// suspend period start and stop are in units of 6 minutes since midnight
	maxSuspendTime    = 239
	maxSuspendPeriods = 5
	maxCoresDisabled  = 127
)

var errBlank = errors.New("cannot be blank")

func invalid(cmd ipmi.Command, err error) error {
	if err == nil {
		return nil
	}
	return &InvalidParametersError{Op: CommandName(cmd), Err: err}
}

// requiredIf is validation.Required applied only when cond holds
func requiredIf(cond bool) validation.RuleFunc {
	return func(value interface{}) error {
		if cond && validation.IsEmpty(value) {
			return errBlank
		}
		return nil
	}
}

func domainRules(required bool) []validation.Rule {
	return []validation.Rule{
		validation.By(requiredIf(required)),
		validation.In(domains.values()...),
	}
}

func (r *PolicyID) validate(cmd ipmi.Command) error {
	return invalid(cmd, validation.ValidateStruct(r,
		validation.Field(&r.Domain, domainRules(true)...),
	))
}

func (p *Policy) validate() error {
	return invalid(CommandSetPolicy, validation.ValidateStruct(p,
		validation.Field(&p.Domain, domainRules(true)...),
		validation.Field(&p.Trigger, validation.Required, validation.In(triggers.values()...)),
		validation.Field(&p.CPUCorrection, validation.In(cpuCorrections.values()...)),
		validation.Field(&p.Storage, validation.In(storages.values()...)),
		validation.Field(&p.Action, validation.Required, validation.In(actions.values()...)),
		validation.Field(&p.PowerDomain, validation.Required, validation.In(powerDomains.values()...)),
		validation.Field(&p.Limit, validation.By(p.checkLimit)),
	))
}

// checkLimit makes sure boot policies and only boot policies carry a BootLimit
func (p *Policy) checkLimit(interface{}) error {
	switch l := p.Limit.(type) {
	case nil:
		return errBlank
	case BootLimit:
		if p.Trigger != TriggerBoot {
			return errors.Errorf("boot limit is only valid for the %s trigger", TriggerBoot)
		}
		if !bootModes.has(l.Mode) {
			return errors.Errorf("unknown boot mode %q", l.Mode)
		}
		if l.CoresDisabled > maxCoresDisabled {
			return errors.Errorf("cores disabled must be no greater than %d", maxCoresDisabled)
		}
	case PowerLimit:
		if p.Trigger == TriggerBoot {
			return errors.Errorf("the %s trigger requires a boot limit", TriggerBoot)
		}
	}
	return nil
}

func (s *Suspend) validate() error {
	return invalid(CommandSetSuspend, validation.ValidateStruct(s,
		validation.Field(&s.Domain, domainRules(true)...),
		validation.Field(&s.Periods, validation.Length(0, maxSuspendPeriods), validation.By(s.checkPeriods)),
	))
}

func (s *Suspend) checkPeriods(interface{}) error {
	for i := range s.Periods {
		p := &s.Periods[i]
		err := validation.ValidateStruct(p,
			validation.Field(&p.Start, validation.Max(uint8(maxSuspendTime))),
			validation.Field(&p.Stop, validation.Max(uint8(maxSuspendTime))),
			validation.Field(&p.Days, validation.Required, validation.By(checkDays)),
		)
		if err != nil {
			return fmt.Errorf("period %d: %s", i, err)
		}
	}
	return nil
}

func checkDays(value interface{}) error {
	ds, _ := value.([]Day)
	for _, d := range ds {
		if d.Code() == 0 {
			return errors.Errorf("unknown day %q", d)
		}
	}
	return nil
}

func (q *CapabilitiesQuery) validate() error {
	return invalid(CommandGetCapabilities, validation.ValidateStruct(q,
		validation.Field(&q.Domain, domainRules(true)...),
		validation.Field(&q.Trigger, validation.Required, validation.In(triggers.values()...)),
		validation.Field(&q.PowerDomain, validation.Required, validation.In(powerDomains.values()...)),
	))
}

func (c *Control) validate() error {
	return invalid(CommandPolicyControl, validation.ValidateStruct(c,
		validation.Field(&c.Scope, validation.Required, validation.In(scopes...)),
		validation.Field(&c.Domain, domainRules(c.Scope != ScopeGlobal)...),
	))
}

var statisticsScopes = []interface{}{ScopeGlobal, ScopePolicy}

func globalOnlyParameters() []string {
	var names []string
	for _, v := range statistics[ScopeGlobal].values() {
		if p := v.(StatisticsParameter); IsGlobalOnly(p) {
			names = append(names, string(p))
		}
	}
	return names
}

func (q *StatisticsQuery) validateGet() error {
	return invalid(CommandGetStatistics, validation.ValidateStruct(q,
		validation.Field(&q.Scope, validation.Required, validation.In(statisticsScopes...)),
		validation.Field(&q.Parameter, validation.Required, validation.By(q.checkScopeParameter)),
		validation.Field(&q.Domain, domainRules(!IsGlobalOnly(q.Parameter))...),
	))
}

func (q *StatisticsQuery) checkScopeParameter(interface{}) error {
	t, ok := statistics[q.Scope]
	if !ok {
		return nil // reported on scope
	}
	if !t.has(q.Parameter) {
		return errors.Errorf("invalid parameter name %s for scope %s", q.Parameter, q.Scope)
	}
	return nil
}

func (q *StatisticsQuery) validateReset() error {
	return invalid(CommandResetStatistics, validation.ValidateStruct(q,
		validation.Field(&q.Scope, validation.Required, validation.In(statisticsScopes...)),
		validation.Field(&q.Parameter, validation.By(checkResetParameter)),
		validation.Field(&q.Domain, domainRules(q.Parameter == "")...),
	))
}

func checkResetParameter(value interface{}) error {
	p, _ := value.(StatisticsParameter)
	if p != "" && !IsGlobalOnly(p) {
		return errors.Errorf("individual reset is possible only for: %s",
			strings.Join(globalOnlyParameters(), ", "))
	}
	return nil
}
