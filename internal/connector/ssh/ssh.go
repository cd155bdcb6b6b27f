// Package ssh provides a connector that executes commands on a remote
// host over SSH and moves files over SFTP on the same connection.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	xssh "golang.org/x/crypto/ssh"

	"github.com/hiveline/hiveline/internal/connector"
)

// keepaliveInterval is how often a keepalive request is sent on an open
// connection so long-running statements do not get cut by idle timeouts.
const keepaliveInterval = 5 * time.Minute

// Connector executes commands on a remote host via SSH.
type Connector struct {
	host     string
	port     int
	user     string
	password string
	keyFile  string
	timeout  time.Duration
	log      zerolog.Logger

	client *xssh.Client
	sftpc  *sftp.Client
	done   chan struct{}
}

// Option configures the SSH connector.
type Option func(*Connector)

// WithPassword sets password authentication.
func WithPassword(password string) Option {
	return func(c *Connector) {
		c.password = password
	}
}

// WithKeyFile sets private key authentication.
func WithKeyFile(path string) Option {
	return func(c *Connector) {
		c.keyFile = path
	}
}

// WithTimeout sets the connection timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Connector) {
		c.timeout = d
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Connector) {
		c.log = log
	}
}

// New creates an SSH connector for user@host:port.
func New(host string, port int, user string, opts ...Option) *Connector {
	c := &Connector{
		host:    host,
		port:    port,
		user:    user,
		timeout: 30 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the remote host and authenticates.
func (c *Connector) Connect(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	auth, err := c.authMethods()
	if err != nil {
		return err
	}

	cfg := &xssh.ClientConfig{
		User: c.user,
		Auth: auth,
		// Edge nodes live on private networks and are reached by IP;
		// host keys are not tracked, matching the existing workflow.
		HostKeyCallback: xssh.InsecureIgnoreHostKey(),
		Timeout:         c.timeout,
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := xssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	c.client = xssh.NewClient(sshConn, chans, reqs)
	c.done = make(chan struct{})
	go c.keepalive(c.client, c.done)

	c.log.Debug().Str("addr", addr).Str("user", c.user).Msg("ssh connected")
	return nil
}

func (c *Connector) authMethods() ([]xssh.AuthMethod, error) {
	var auth []xssh.AuthMethod
	if c.keyFile != "" {
		key, err := os.ReadFile(c.keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		signer, err := xssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, xssh.PublicKeys(signer))
	}
	if c.password != "" {
		auth = append(auth, xssh.Password(c.password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh credentials configured")
	}
	return auth, nil
}

// keepalive pings the connection until done closes. The client is
// passed in rather than read from the connector so Close can clear
// c.client without racing this goroutine.
func (c *Connector) keepalive(client *xssh.Client, done <-chan struct{}) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
			if err != nil {
				c.log.Debug().Err(err).Msg("keepalive failed")
				return
			}
		}
	}
}

// Execute runs a command in a fresh session and captures its output.
func (c *Connector) Execute(ctx context.Context, cmd string) (*connector.Result, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	c.log.Debug().Str("cmd", cmd).Msg("ssh execute")

	if err := session.Start(cmd); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		// Closing the session tears down the remote process.
		session.Close()
		<-waitErr
		return nil, ctx.Err()
	case err := <-waitErr:
		result := &connector.Result{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
		if err != nil {
			var exitErr *xssh.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitStatus()
				return result, nil
			}
			return nil, fmt.Errorf("command failed on %s: %w", c.String(), err)
		}
		return result, nil
	}
}

// Upload writes src to the remote path dst over SFTP.
func (c *Connector) Upload(ctx context.Context, src io.Reader, dst string, mode uint32) error {
	client, err := c.sftpClient()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := client.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("failed to write remote file %s: %w", dst, err)
	}
	if err := client.Chmod(dst, os.FileMode(mode)); err != nil {
		return fmt.Errorf("failed to chmod remote file %s: %w", dst, err)
	}
	return nil
}

// Download copies the remote path src into dst over SFTP.
func (c *Connector) Download(ctx context.Context, src string, dst io.Writer) error {
	client, err := c.sftpClient()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := client.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open remote file %s: %w", src, err)
	}
	defer f.Close()

	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("failed to read remote file %s: %w", src, err)
	}
	return nil
}

func (c *Connector) sftpClient() (*sftp.Client, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	if c.sftpc != nil {
		return c.sftpc, nil
	}
	client, err := sftp.NewClient(c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}
	c.sftpc = client
	return client, nil
}

// Close terminates the connection.
func (c *Connector) Close() error {
	if c.client == nil {
		return nil
	}
	close(c.done)
	if c.sftpc != nil {
		c.sftpc.Close()
		c.sftpc = nil
	}
	err := c.client.Close()
	c.client = nil
	c.log.Debug().Msg("ssh closed")
	return err
}

// String returns a description of the connection.
func (c *Connector) String() string {
	return fmt.Sprintf("ssh://%s@%s:%d", c.user, c.host, c.port)
}

// Ensure Connector implements the connector.Connector interface.
var _ connector.Connector = (*Connector)(nil)
