// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package ipmi

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// NewSSHTool creates a Tool that runs ipmitool on Connection.SSHHost.
// This is for BMC networks only reachable from a management host.
func NewSSHTool(c *Connection) *Tool {
	t := NewTool(c)
	t.runner = &sshRunner{Connection: c}
	if c.SSHKnownHosts == "" {
		t.Log.WithField("ssh", c.sshAddress()).Warn("ssh host key is not verified, no known_hosts file configured")
	}
	return t
}

type sshRunner struct {
	*Connection
}

func (r *sshRunner) config() (*ssh.ClientConfig, error) {
	hostKey := ssh.InsecureIgnoreHostKey()
	if r.SSHKnownHosts != "" {
		cb, err := knownhosts.New(r.SSHKnownHosts)
		if err != nil {
			return nil, errors.Wrap(err, "load known hosts")
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User: r.sshUser(),
		Auth: []ssh.AuthMethod{
			ssh.Password(r.SSHPassword),
		},
		HostKeyCallback: hostKey,
	}, nil
}

// dialSSH calls ssh.Dial with the management host settings
func (r *sshRunner) dialSSH() (*ssh.Client, error) {
	config, err := r.config()
	if err != nil {
		return nil, err
	}
	client, err := ssh.Dial("tcp", r.sshAddress(), config)
	if err != nil {
		return nil, errors.Wrapf(err, "ssh %s", r.sshAddress())
	}
	return client, nil
}

// output runs script in a new session, display is what errors show instead
// of the script, which may hold the BMC password.
func (r *sshRunner) output(ctx context.Context, script string, display string) ([]byte, error) {
	client, err := r.dialSSH()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "ssh session")
	}
	defer session.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	if err := session.Run(script); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, toolError(display, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}

func (r *sshRunner) run(ctx context.Context, env []string, argv []string) ([]byte, error) {
	return r.output(ctx, shellCommand(env, argv), shellCommand(nil, argv))
}

func (r *sshRunner) dump(ctx context.Context, env []string, argv []string, path string) error {
	// dump into a remote temp file and stream it back over stdout
	script := fmt.Sprintf(`f=$(mktemp) && %s "$f" >/dev/null && cat "$f"; rc=$?; rm -f "$f"; exit $rc`,
		shellCommand(env, argv))

	data, err := r.output(ctx, script, shellCommand(nil, argv))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func shellCommand(env []string, argv []string) string {
	words := make([]string, 0, len(env)+len(argv))
	for _, e := range env {
		kv := strings.SplitN(e, "=", 2)
		words = append(words, kv[0]+"="+shellQuote(kv[1]))
	}
	for _, arg := range argv {
		words = append(words, shellQuote(arg))
	}
	return strings.Join(words, " ")
}

func shellQuote(s string) string {
	return "'" + strings.Replace(s, "'", `'\''`, -1) + "'"
}
