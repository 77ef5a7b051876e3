package sshcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/HerbHall/switchconnector/pkg/models"
	"golang.org/x/crypto/ssh"
)

const (
	// DefaultPort is the SSH port of the switch.
	DefaultPort = 22
	// DefaultDialTimeout bounds TCP connect plus SSH handshake.
	DefaultDialTimeout = 5 * time.Second
	// DefaultCommandTimeout bounds a single command, prompt to prompt.
	DefaultCommandTimeout = 30 * time.Second
)

var errCommandTimeout = errors.New("command timed out waiting for prompt")

// promptRe matches an IOS prompt such as "sw1>", "sw1#" or "sw1(config-if)#".
var promptRe = regexp.MustCompile(`^[\w.\-@/:]{1,63}(\([\w.\-@/:+]{0,32}\))?[>#]\s?$`)

// Shell is an interactive CLI session on a switch.
type Shell interface {
	// Run sends cmd and returns its output, without the echoed command and
	// the trailing prompt.
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Dialer opens a Shell to addr. Failures are *driver.TransportError of kind
// auth or connect.
type Dialer func(ctx context.Context, addr string, creds vault.Credentials) (Shell, error)

// Options configures SSH sessions.
type Options struct {
	Port           int
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	return o
}

// NewDialer returns a Dialer that opens PTY shells over SSH.
func NewDialer(opts Options) Dialer {
	opts = opts.withDefaults()
	return func(ctx context.Context, addr string, creds vault.Credentials) (Shell, error) {
		return dialShell(ctx, addr, creds, opts)
	}
}

func clientConfig(creds vault.Credentials, timeout time.Duration) *ssh.ClientConfig {
	password := creds.Password
	return &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // switches present self-signed host keys
		Timeout:         timeout,
	}
}

func dialShell(ctx context.Context, addr string, creds vault.Credentials, opts Options) (Shell, error) {
	target := net.JoinHostPort(addr, strconv.Itoa(opts.Port))

	d := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, dialError(driver.KindConnect, err)
	}

	// The deadline covers the handshake and authentication only.
	_ = conn.SetDeadline(time.Now().Add(opts.DialTimeout))
	cc, chans, reqs, err := ssh.NewClientConn(conn, target, clientConfig(creds, opts.DialTimeout))
	if err != nil {
		conn.Close()
		kind := driver.KindConnect
		if strings.Contains(err.Error(), "unable to authenticate") {
			kind = driver.KindAuth
		}
		return nil, dialError(kind, err)
	}
	_ = conn.SetDeadline(time.Time{})
	client := ssh.NewClient(cc, chans, reqs)

	sh, err := openShell(ctx, client, opts.CommandTimeout)
	if err != nil {
		client.Close()
		return nil, dialError(driver.KindConnect, fmt.Errorf("open shell: %w", err))
	}
	return sh, nil
}

func dialError(kind driver.Kind, err error) error {
	return &driver.TransportError{Protocol: models.ProtocolSSH, Op: "dial", Kind: kind, Err: err}
}

type sshShell struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	timeout time.Duration

	chunks    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	buf       bytes.Buffer
}

func openShell(ctx context.Context, client *ssh.Client, timeout time.Duration) (*sshShell, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := session.RequestPty("vt100", 0, 511, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	s := &sshShell{
		client:  client,
		session: session,
		stdin:   stdin,
		timeout: timeout,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
	}
	go s.pump(stdout)

	if _, err := s.readUntilPrompt(ctx); err != nil {
		s.closeSession()
		return nil, fmt.Errorf("waiting for prompt: %w", err)
	}
	for _, cmd := range []string{"terminal length 0", "terminal width 511"} {
		if _, err := s.Run(ctx, cmd); err != nil {
			s.closeSession()
			return nil, err
		}
	}
	return s, nil
}

// pump copies session output to s.chunks until the session ends.
func (s *sshShell) pump(r io.Reader) {
	defer close(s.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *sshShell) Run(ctx context.Context, cmd string) (string, error) {
	if _, err := io.WriteString(s.stdin, cmd+"\n"); err != nil {
		return "", fmt.Errorf("send %q: %w", cmd, err)
	}
	out, err := s.readUntilPrompt(ctx)
	if err != nil {
		return "", err
	}
	first, rest, _ := strings.Cut(out, "\n")
	if strings.TrimSpace(first) == cmd {
		out = rest
	}
	return strings.TrimSpace(out), nil
}

func (s *sshShell) readUntilPrompt(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	for {
		if out, ok := cutPrompt(s.buf.String()); ok {
			s.buf.Reset()
			return out, nil
		}
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return "", io.ErrUnexpectedEOF
			}
			s.buf.Write(chunk)
		case <-timer.C:
			return "", errCommandTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// cutPrompt returns the text before a trailing prompt line, if there is one.
func cutPrompt(text string) (string, bool) {
	text = strings.ReplaceAll(text, "\r", "")
	idx := strings.LastIndexByte(text, '\n')
	last := text[idx+1:]
	if !promptRe.MatchString(last) {
		return "", false
	}
	if idx < 0 {
		return "", true
	}
	return text[:idx], true
}

func (s *sshShell) Close() error {
	return s.closeSession()
}

func (s *sshShell) closeSession() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.session.Close()
		err = s.client.Close()
	})
	return err
}
