package source

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync/atomic"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/jlogtools/jlog/internal/parse"
)

const (
	sshMaxLineSize      = 1024 * 1024
	sshProgressInterval = 1_000

	// DefaultRemoteCommand streams recent journal history and then follows.
	DefaultRemoteCommand = "journalctl -o json --no-pager -n 10000 -f"
)

// SSHConfig describes a remote log stream: where to connect, how to
// authenticate, and which command produces the lines.
type SSHConfig struct {
	Host     string
	Port     int
	User     string
	Password string // password auth when non-empty
	KeyFile  string // private-key auth when non-empty
	Command  string // defaults to DefaultRemoteCommand
}

func (c SSHConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSHReader streams log lines from a command run on a remote host. Lines
// flow through the same parse path as local files; connection state is
// reported with Connected/Disconnected messages.
type SSHReader struct {
	cfg SSHConfig
	ch  chan Message
	cmd chan Command
}

// NewSSHReader connects and starts streaming in a background goroutine.
func NewSSHReader(cfg SSHConfig) *SSHReader {
	if cfg.Command == "" {
		cfg.Command = DefaultRemoteCommand
	}
	r := &SSHReader{
		cfg: cfg,
		ch:  make(chan Message, DefaultBuffer),
		cmd: make(chan Command, 2),
	}
	go r.run()
	return r
}

// Messages returns the read side of the producer channel.
func (r *SSHReader) Messages() <-chan Message { return r.ch }

// Cancel asks the producer to stop. A read blocked on a quiet stream is
// unblocked by closing the connection.
func (r *SSHReader) Cancel() {
	select {
	case r.cmd <- CommandCancel:
	default:
	}
}

// Disconnect tears down the SSH connection.
func (r *SSHReader) Disconnect() {
	select {
	case r.cmd <- CommandDisconnect:
	default:
	}
}

func (r *SSHReader) run() {
	defer close(r.ch)
	defer func() { r.ch <- DisconnectedMessage{} }()

	auth, err := r.authMethods()
	if err != nil {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("ssh auth: %v", err)}
		return
	}

	clientCfg := &ssh.ClientConfig{
		User: r.cfg.User,
		Auth: auth,
		// The original tool trusts the operator-supplied host; verifying
		// known_hosts is left to configuration above this layer.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	client, err := ssh.Dial("tcp", r.cfg.addr(), clientCfg)
	if err != nil {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("ssh dial %s: %v", r.cfg.addr(), err)}
		return
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("ssh session: %v", err)}
		return
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("ssh stdout: %v", err)}
		return
	}
	if err := session.Start(r.cfg.Command); err != nil {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("ssh start %q: %v", r.cfg.Command, err)}
		return
	}

	r.ch <- ConnectedMessage{}
	r.stream(stdout, client)
}

// stream scans remote lines until the source ends or a command arrives.
// The remote side may never send another line, so the watcher goroutine
// closes conn on Cancel or Disconnect to unblock a parked read; the read
// error that follows is the stop, not a failure.
func (r *SSHReader) stream(stdout io.Reader, conn io.Closer) {
	done := make(chan struct{})
	defer close(done)

	var stopping atomic.Bool
	go func() {
		select {
		case <-r.cmd:
			stopping.Store(true)
			conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, sshMaxLineSize), sshMaxLineSize)

	var linesRead, entriesSent, parseErrors int
	for scanner.Scan() {
		if stopping.Load() {
			break
		}

		line := scanner.Text()
		if line == "" {
			continue
		}
		linesRead++
		if entry := parse.Line(line, linesRead); entry != nil {
			r.ch <- EntryMessage{Entry: entry}
			entriesSent++
		} else {
			parseErrors++
		}

		if linesRead%sshProgressInterval == 0 {
			// No total for a live stream, so percent stays 0.
			r.ch <- ProgressMessage{Lines: linesRead}
		}
	}
	if err := scanner.Err(); err != nil && !stopping.Load() {
		r.ch <- ErrorMessage{Err: fmt.Sprintf("ssh read: %v", err)}
		return
	}

	r.ch <- CompletedMessage{TotalLines: linesRead, Entries: entriesSent, ParseErrors: parseErrors}
}

// authMethods builds the auth chain: explicit password, private key file,
// then a running ssh-agent as the fallback.
func (r *SSHReader) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if r.cfg.Password != "" {
		methods = append(methods, ssh.Password(r.cfg.Password))
	}

	if r.cfg.KeyFile != "" {
		key, err := os.ReadFile(r.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" && len(methods) == 0 {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no usable auth method (password, key file, or ssh-agent)")
	}
	return methods, nil
}
