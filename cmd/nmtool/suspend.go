// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vmware/goipmi-nm/nm"
)

func newSuspendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suspend",
		Short: "Get, set and remove policy suspend periods",
	}
	cmd.AddCommand(newSuspendGetCmd(a), newSuspendSetCmd(a), newSuspendRemoveCmd(a))
	return cmd
}

func newSuspendGetCmd(a *app) *cobra.Command {
	var id policyIDFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the suspend periods of a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			periods, err := m.PolicySuspend(cmd.Context(), id.policyID())
			if err != nil {
				return err
			}
			return a.print(cmd, periods)
		},
	}
	id.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("policy-id")
	return cmd
}

func newSuspendSetCmd(a *app) *cobra.Command {
	var (
		id      policyIDFlags
		periods []string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the suspend periods of a policy",
		Long: `Replace the suspend periods of a policy. Each --period is START,STOP,DAYS
where START and STOP count 6 minute steps from midnight and DAYS joins day
names with '+', for example --period 10,20,monday+friday.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := nm.Suspend{Domain: nm.Domain(id.domain), PolicyID: id.id}
			for _, arg := range periods {
				period, err := parsePeriod(arg)
				if err != nil {
					return err
				}
				s.Periods = append(s.Periods, period)
			}

			m, err := a.nm()
			if err != nil {
				return err
			}
			return m.SetPolicySuspend(cmd.Context(), &s)
		},
	}

	id.register(cmd.Flags())
	cmd.Flags().StringArrayVar(&periods, "period", nil, "suspend period START,STOP,DAYS (repeatable)")
	_ = cmd.MarkFlagRequired("policy-id")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func parsePeriod(arg string) (nm.SuspendPeriod, error) {
	var period nm.SuspendPeriod

	fields := strings.Split(arg, ",")
	if len(fields) != 3 {
		return period, errors.Errorf("invalid period %q, want START,STOP,DAYS", arg)
	}

	start, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return period, errors.Wrapf(err, "invalid period start %q", fields[0])
	}
	stop, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return period, errors.Wrapf(err, "invalid period stop %q", fields[1])
	}

	period.Start = uint8(start)
	period.Stop = uint8(stop)
	for _, day := range strings.Split(fields[2], "+") {
		period.Days = append(period.Days, nm.Day(strings.ToLower(day)))
	}

	return period, nil
}

func newSuspendRemoveCmd(a *app) *cobra.Command {
	var id policyIDFlags
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove all suspend periods of a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.nm()
			if err != nil {
				return err
			}
			return m.RemovePolicySuspend(cmd.Context(), id.policyID())
		},
	}
	id.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("policy-id")
	return cmd
}
