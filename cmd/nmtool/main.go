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

// nmtool manages Intel Node Manager policies through a BMC using ipmitool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	ipmi "github.com/vmware/goipmi-nm"
	"github.com/vmware/goipmi-nm/nm"
)

// app is the state shared by all commands
type app struct {
	v         *viper.Viper
	log       *logrus.Logger
	transport func(*ipmi.Connection) (ipmi.Transport, error)

	manager *nm.Manager
}

func newApp() *app {
	return &app{
		v:         viper.New(),
		log:       logrus.StandardLogger(),
		transport: ipmi.NewTransport,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "nmtool",
		Short: "Manage Intel Node Manager power policies",
		Long: `nmtool talks to Intel Node Manager behind a BMC using ipmitool raw commands.
The Node Manager address is discovered from the SDR unless --channel and
--address are given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.nmtool.yaml)")
	flags.String("host", "", "BMC host name or address")
	flags.Int("port", 0, "BMC RMCP port")
	flags.String("user", "", "BMC user")
	flags.String("password", "", "BMC password")
	flags.String("interface", "lanplus", "ipmitool interface: lan, lanplus or open")
	flags.String("ipmitool", "ipmitool", "path to ipmitool")
	flags.String("ssh-host", "", "run ipmitool on this management host")
	flags.Int("ssh-port", 22, "management host ssh port")
	flags.String("ssh-user", "", "management host user (default is --user)")
	flags.String("ssh-password", "", "management host password")
	flags.String("ssh-known-hosts", "", "known_hosts file to verify the management host")
	flags.String("channel", "", "Node Manager channel, skips discovery together with --address")
	flags.String("address", "", "Node Manager slave address")
	flags.StringP("output", "o", "yaml", "output format: yaml or json")
	flags.Bool("debug", false, "log ipmitool commands and responses")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newVersionCmd(a),
		newPolicyCmd(a),
		newSuspendCmd(a),
		newCapabilitiesCmd(a),
		newControlCmd(a),
		newStatisticsCmd(a),
		newDiscoverCmd(a),
		newSDRCmd(a),
	)

	return root
}

// loadConfig layers flags over NMTOOL_* environment variables over the config file
func (a *app) loadConfig() error {
	a.v.SetEnvPrefix("NMTOOL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, ".nmtool.yaml")
		if _, err := os.Stat(path); err == nil {
			a.v.SetConfigFile(path)
			if err := a.v.ReadInConfig(); err != nil {
				return errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	if a.v.GetBool("debug") {
		a.log.SetLevel(logrus.DebugLevel)
	}

	switch a.v.GetString("output") {
	case "yaml", "json":
	default:
		return errors.Errorf("unsupported output format: %s", a.v.GetString("output"))
	}

	return nil
}

func (a *app) connection() *ipmi.Connection {
	return &ipmi.Connection{
		Path:          a.v.GetString("ipmitool"),
		Hostname:      a.v.GetString("host"),
		Port:          a.v.GetInt("port"),
		Username:      a.v.GetString("user"),
		Password:      a.v.GetString("password"),
		Interface:     a.v.GetString("interface"),
		SSHHost:       a.v.GetString("ssh-host"),
		SSHPort:       a.v.GetInt("ssh-port"),
		SSHUser:       a.v.GetString("ssh-user"),
		SSHPassword:   a.v.GetString("ssh-password"),
		SSHKnownHosts: a.v.GetString("ssh-known-hosts"),
	}
}

// nm returns the Manager, creating the transport on first use
func (a *app) nm() (*nm.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}

	c := a.connection()
	t, err := a.transport(c)
	if err != nil {
		return nil, err
	}
	if tool, ok := t.(*ipmi.Tool); ok {
		tool.Log = a.log
	}

	m := nm.NewManager(t)
	m.Node = c.Hostname
	m.Log = a.log

	channel, address := a.v.GetString("channel"), a.v.GetString("address")
	switch {
	case channel != "" && address != "":
		m.SetAddress(nm.SlaveAddress{Address: address, Channel: channel})
	case channel != "" || address != "":
		return nil, errors.New("--channel and --address must be given together")
	}

	a.manager = m
	return m, nil
}

func (a *app) print(cmd *cobra.Command, data interface{}) error {
	var out []byte
	var err error

	switch a.v.GetString("output") {
	case "json":
		out, err = json.MarshalIndent(data, "", "  ")
		out = append(out, '\n')
	default:
		out, err = yaml.Marshal(data)
	}
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
