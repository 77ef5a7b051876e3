package sshcli

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// iosServer is a minimal SSH server emulating an IOS exec shell.
type iosServer struct {
	listener net.Listener
	config   *ssh.ServerConfig
	outputs  map[string]string
	wg       sync.WaitGroup

	mu   sync.Mutex
	sent []string
}

func startIOSServer(t *testing.T, password string, outputs map[string]string) *iosServer {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, pw []byte) (*ssh.Permissions, error) {
			if string(pw) == password {
				return nil, nil
			}
			return nil, fmt.Errorf("bad password")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &iosServer{listener: ln, config: cfg, outputs: outputs}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

func (s *iosServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *iosServer) Close() {
	s.listener.Close()
	s.wg.Wait()
}

func (s *iosServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *iosServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *iosServer) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	_, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ssh.DiscardRequests(reqs)
	}()

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			for req := range requests {
				_ = req.Reply(req.Type == "pty-req" || req.Type == "shell", nil)
			}
		}()
		go func() {
			defer s.wg.Done()
			s.serveShell(ch)
		}()
	}
}

func (s *iosServer) serveShell(ch ssh.Channel) {
	defer ch.Close()
	prompt := "sw1#"
	if _, err := io.WriteString(ch, "\r\n"+prompt); err != nil {
		return
	}
	r := bufio.NewReader(ch)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		s.mu.Lock()
		s.sent = append(s.sent, cmd)
		s.mu.Unlock()

		switch {
		case cmd == "configure terminal":
			prompt = "sw1(config)#"
		case strings.HasPrefix(cmd, "interface "):
			prompt = "sw1(config-if)#"
		case cmd == "end":
			prompt = "sw1#"
		case cmd == "hang":
			continue
		}
		out := cmd + "\r\n"
		if body, ok := s.outputs[cmd]; ok {
			out += strings.ReplaceAll(body, "\n", "\r\n") + "\r\n"
		}
		if _, err := io.WriteString(ch, out+prompt); err != nil {
			return
		}
	}
}

func testDialer(s *iosServer, commandTimeout time.Duration) Dialer {
	return NewDialer(Options{Port: s.port(), DialTimeout: 2 * time.Second, CommandTimeout: commandTimeout})
}

func TestShellRunsCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	outputs := make(map[string]string)
	outputs["show running-config | include ^hostname"] = "hostname sw1"
	outputs["show vlan brief"] = showVlanBrief
	srv := startIOSServer(t, "secret", outputs)
	defer srv.Close()

	sh, err := testDialer(srv, 2*time.Second)(context.Background(), "127.0.0.1", vault.Credentials{Username: "admin", Password: "secret"})
	require.NoError(t, err)

	out, err := sh.Run(context.Background(), "show running-config | include ^hostname")
	require.NoError(t, err)
	assert.Equal(t, "hostname sw1", out)

	out, err = sh.Run(context.Background(), "show vlan brief")
	require.NoError(t, err)
	assert.Len(t, parseVlanBrief(out), 4)

	require.NoError(t, sh.Close())
	assert.Equal(t, []string{
		"terminal length 0",
		"terminal width 511",
		"show running-config | include ^hostname",
		"show vlan brief",
	}, srv.commands())
}

func TestShellDriverConfigure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := startIOSServer(t, "secret", nil)
	defer srv.Close()

	c := New("127.0.0.1", vault.Credentials{Username: "admin", Password: "secret"}, testDialer(srv, 2*time.Second), zap.NewNop())
	require.NoError(t, c.SetInterfaceMode(context.Background(), "Te1/1/1", "trunk"))

	cmds := srv.commands()
	assert.Equal(t, []string{
		"configure terminal",
		"interface TenGigabitEthernet1/1/1",
		"switchport mode trunk",
		"end",
	}, cmds[2:])
}

func TestShellAuthFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := startIOSServer(t, "secret", nil)
	defer srv.Close()

	_, err := testDialer(srv, time.Second)(context.Background(), "127.0.0.1", vault.Credentials{Username: "admin", Password: "wrong"})
	k, ok := driver.KindOf(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, driver.KindAuth, k)
	assert.True(t, driver.IsUnreachable(err))
}

func TestShellConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	dial := NewDialer(Options{Port: port, DialTimeout: time.Second})
	_, err = dial(context.Background(), "127.0.0.1", vault.Credentials{Username: "admin", Password: "x"})
	k, ok := driver.KindOf(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, driver.KindConnect, k)
	assert.Contains(t, err.Error(), strconv.Itoa(port))
}

func TestShellCommandTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := startIOSServer(t, "secret", nil)
	defer srv.Close()

	sh, err := testDialer(srv, 200*time.Millisecond)(context.Background(), "127.0.0.1", vault.Credentials{Username: "admin", Password: "secret"})
	require.NoError(t, err)

	_, err = sh.Run(context.Background(), "hang")
	assert.ErrorIs(t, err, errCommandTimeout)
	require.NoError(t, sh.Close())
}
