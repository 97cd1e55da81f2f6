// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vmware/goipmi-nm/nm"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show Node Manager and IPMI interface versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			v, err := m.Version(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, v)
		},
	}
}

func newCapabilitiesCmd(a *app) *cobra.Command {
	var (
		domain      string
		trigger     string
		powerDomain string
	)

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show the limits a policy may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			c, err := m.Capabilities(cmd.Context(), &nm.CapabilitiesQuery{
				Domain:      nm.Domain(domain),
				Trigger:     nm.Trigger(trigger),
				PowerDomain: nm.PowerDomain(powerDomain),
			})
			if err != nil {
				return err
			}
			return a.print(cmd, c)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&domain, "domain", string(nm.DomainPlatform), "domain: platform, cpu, memory, protection or io")
	flags.StringVar(&trigger, "trigger", string(nm.TriggerNone), "policy trigger: none, temperature, power, reset or boot")
	flags.StringVar(&powerDomain, "power-domain", string(nm.PowerDomainPrimary), "power domain: primary or secondary")

	return cmd
}

func newControlCmd(a *app) *cobra.Command {
	var (
		id    policyIDFlags
		scope string
	)

	cmd := &cobra.Command{
		Use:       "control enable|disable",
		Short:     "Enable or disable policies globally, per domain or per policy",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"enable", "disable"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := nm.Control{Scope: nm.Scope(scope)}
			switch args[0] {
			case "enable":
				c.Enable = true
			case "disable":
			default:
				return errors.Errorf("invalid argument %q, want enable or disable", args[0])
			}

			if c.Scope != nm.ScopeGlobal {
				c.Domain = nm.Domain(id.domain)
			}
			if c.Scope == nm.ScopePolicy {
				if !cmd.Flags().Changed("policy-id") {
					return errors.New("--policy-id is required for policy scope")
				}
				c.PolicyID = id.id
			}

			m, err := a.nm()
			if err != nil {
				return err
			}
			return m.Control(cmd.Context(), &c)
		},
	}

	id.register(cmd.Flags())
	cmd.Flags().StringVar(&scope, "scope", string(nm.ScopeGlobal), "control scope: global, domain or policy")

	return cmd
}

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Find the Node Manager address in the SDR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			addr, err := m.Discover(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, addr)
		},
	}
}

type scanResult struct {
	Found           bool `json:"found" yaml:"found"`
	nm.SlaveAddress `yaml:",inline"`
}

func newSDRCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdr",
		Short: "Inspect SDR repository dumps",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "scan FILE",
		Short: "Find the Node Manager record in an SDR dump made by 'ipmitool sdr dump'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, ok, err := nm.ReadSlaveAddress(args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, scanResult{Found: ok, SlaveAddress: addr})
		},
	})

	return cmd
}
