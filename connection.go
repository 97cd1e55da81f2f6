// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package ipmi

import (
	"net"
	"strconv"
)

// Connection properties for a Transport
type Connection struct {
	Path      string
	Hostname  string
	Port      int
	Username  string
	Password  string
	Interface string

	// Optional management host that runs ipmitool on our behalf
	SSHHost       string
	SSHPort       int
	SSHUser       string
	SSHPassword   string
	SSHKnownHosts string
}

// Bridge addresses a controller behind the BMC, such as the
// Management Engine that runs Intel Node Manager.
type Bridge struct {
	Channel string
	Address string
}

// inBand reports whether ipmitool talks to the local BMC driver
func (c *Connection) inBand() bool {
	return c.Interface == "open"
}

func (c *Connection) sshAddress() string {
	port := "22"
	if c.SSHPort != 0 {
		port = strconv.Itoa(c.SSHPort)
	}
	return net.JoinHostPort(c.SSHHost, port)
}

func (c *Connection) sshUser() string {
	if c.SSHUser == "" {
		return c.Username
	}
	return c.SSHUser
}
