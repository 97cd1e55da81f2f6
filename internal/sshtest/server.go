// Copyright (c) 2014 VMware, Inc. All Rights Reserved.

package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// Handler runs cmd, writing its output to stdout and stderr.
// The return value is propagated to the client via "exit-status".
type Handler func(cmd string, stdout, stderr io.Writer) int

// Server is an ssh server on 127.0.0.1 that handles only "exec" requests
type Server struct {
	Port int

	listener net.Listener
	wg       sync.WaitGroup
}

// Start runs a Server accepting the given user and password.
// An empty password disables client authentication.
func Start(user, password string, handler Handler) (*Server, error) {
	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, errors.New("auth fail")
		},
	}
	if password == "" {
		config.NoClientAuth = true
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, err
	}
	config.AddHostKey(signer)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		Port:     l.Addr().(*net.TCPAddr).Port,
		listener: l,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			c, err := l.Accept()
			if err != nil {
				return // listener closed
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				serve(c, config, handler)
			}()
		}
	}()

	return s, nil
}

// Close stops accepting connections and waits for open ones to finish
func (s *Server) Close() {
	_ = s.listener.Close()
	s.wg.Wait()
}

func serve(c net.Conn, config *ssh.ServerConfig, handler Handler) {
	defer c.Close()

	conn, chans, reqs, err := ssh.NewServerConn(c, config)
	if err != nil {
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "session only")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			return
		}

		for req := range requests {
			if req.Type == "env" {
				_ = req.Reply(true, nil)
				continue
			} else if req.Type != "exec" {
				_ = req.Reply(false, nil)
				continue
			}

			var exec struct {
				Command string
			}
			if err := ssh.Unmarshal(req.Payload, &exec); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			rc := handler(exec.Command, ch, ch.Stderr())
			status := struct {
				Status uint32
			}{uint32(rc)}
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
			_ = ch.Close() // 1 exec per session (see ssh.Session.Start)
		}
	}
}
