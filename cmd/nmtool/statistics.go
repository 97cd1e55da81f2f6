// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vmware/goipmi-nm/nm"
)

type statisticsFlags struct {
	policyIDFlags
	scope     string
	parameter string
}

func (f *statisticsFlags) register(cmd *cobra.Command, parameter string) {
	f.policyIDFlags.register(cmd.Flags())
	cmd.Flags().StringVar(&f.scope, "scope", string(nm.ScopeGlobal), "statistics scope: global or policy")
	cmd.Flags().StringVar(&f.parameter, "parameter", parameter, "statistics parameter, for example power or response_time")
}

func (f *statisticsFlags) query(cmd *cobra.Command) (*nm.StatisticsQuery, error) {
	q := &nm.StatisticsQuery{
		Scope:     nm.Scope(f.scope),
		Domain:    nm.Domain(f.domain),
		PolicyID:  f.id,
		Parameter: nm.StatisticsParameter(f.parameter),
	}
	if q.Scope == nm.ScopePolicy && !cmd.Flags().Changed("policy-id") {
		return nil, errors.New("--policy-id is required for policy scope")
	}
	return q, nil
}

func newStatisticsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statistics",
		Short: "Get and reset Node Manager statistics",
	}
	cmd.AddCommand(newStatisticsGetCmd(a), newStatisticsResetCmd(a))
	return cmd
}

func newStatisticsGetCmd(a *app) *cobra.Command {
	var f statisticsFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show global or per policy statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.query(cmd)
			if err != nil {
				return err
			}
			m, err := a.nm()
			if err != nil {
				return err
			}
			stats, err := m.Statistics(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.print(cmd, stats)
		},
	}
	f.register(cmd, string(nm.StatisticsPower))
	return cmd
}

func newStatisticsResetCmd(a *app) *cobra.Command {
	var f statisticsFlags
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset global or per policy statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.query(cmd)
			if err != nil {
				return err
			}
			m, err := a.nm()
			if err != nil {
				return err
			}
			return m.ResetStatistics(cmd.Context(), q)
		},
	}
	f.register(cmd, "")
	return cmd
}
