// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vmware/goipmi-nm/nm"
)

type policyIDFlags struct {
	domain string
	id     uint8
}

func (f *policyIDFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.domain, "domain", string(nm.DomainPlatform), "domain: platform, cpu, memory, protection or io")
	flags.Uint8Var(&f.id, "policy-id", 0, "policy id")
}

func (f *policyIDFlags) policyID() nm.PolicyID {
	return nm.PolicyID{Domain: nm.Domain(f.domain), PolicyID: f.id}
}

func newPolicyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Get, set and remove power policies",
	}
	cmd.AddCommand(newPolicyGetCmd(a), newPolicySetCmd(a), newPolicyRemoveCmd(a))
	return cmd
}

func newPolicyGetCmd(a *app) *cobra.Command {
	var id policyIDFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			info, err := m.Policy(cmd.Context(), id.policyID())
			if err != nil {
				return err
			}
			return a.print(cmd, info)
		},
	}
	id.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("policy-id")
	return cmd
}

func newPolicySetCmd(a *app) *cobra.Command {
	var (
		id            policyIDFlags
		disable       bool
		trigger       string
		cpuCorrection string
		storage       string
		action        string
		powerDomain   string
		limit         uint16
		bootMode      string
		coresDisabled uint8
		p             nm.Policy
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace a policy",
		Long: `Create or replace a policy. Boot time policies take --boot-mode and
--cores-disabled, all other triggers take --limit in watts or degrees.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Domain = nm.Domain(id.domain)
			p.PolicyID = id.id
			p.Enable = !disable
			p.Trigger = nm.Trigger(trigger)
			p.CPUCorrection = nm.CPUCorrection(cpuCorrection)
			p.Storage = nm.Storage(storage)
			p.Action = nm.Action(action)
			p.PowerDomain = nm.PowerDomain(powerDomain)
			if p.Trigger == nm.TriggerBoot {
				p.Limit = nm.BootLimit{Mode: nm.BootMode(bootMode), CoresDisabled: coresDisabled}
			} else {
				p.Limit = nm.PowerLimit(limit)
			}

			m, err := a.nm()
			if err != nil {
				return err
			}
			return m.SetPolicy(cmd.Context(), &p)
		},
	}

	id.register(cmd.Flags())
	flags := cmd.Flags()
	flags.BoolVar(&disable, "disable", false, "create the policy disabled")
	flags.StringVar(&trigger, "trigger", string(nm.TriggerNone), "policy trigger: none, temperature, power, reset or boot")
	flags.StringVar(&cpuCorrection, "cpu-correction", "", "cpu power correction: auto, unaggressive or aggressive")
	flags.StringVar(&storage, "storage", "", "policy storage: persistent or volatile")
	flags.StringVar(&action, "action", string(nm.ActionAlert), "exception action: alert or shutdown")
	flags.StringVar(&powerDomain, "power-domain", string(nm.PowerDomainPrimary), "power domain: primary or secondary")
	flags.Uint16Var(&limit, "limit", 0, "target limit")
	flags.StringVar(&bootMode, "boot-mode", string(nm.BootModePower), "boot time policy mode: power or performance")
	flags.Uint8Var(&coresDisabled, "cores-disabled", 0, "cores disabled at boot")
	flags.Uint32Var(&p.CorrectionTime, "correction-time", 0, "correction time limit in milliseconds")
	flags.Uint16Var(&p.TriggerLimit, "trigger-limit", 0, "policy trigger limit")
	flags.Uint16Var(&p.ReportingPeriod, "reporting-period", 0, "statistics reporting period in seconds")
	_ = cmd.MarkFlagRequired("policy-id")

	return cmd
}

func newPolicyRemoveCmd(a *app) *cobra.Command {
	var id policyIDFlags
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			return m.RemovePolicy(cmd.Context(), id.policyID())
		},
	}
	id.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("policy-id")
	return cmd
}
