package backend

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/config"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// SSHPort is the only port used for SSH connections.
const SSHPort = "22"

// Destination is an SSH login.
type Destination struct {
	User string
	Host string
}

// Addr returns host:22.
func (d Destination) Addr() string {
	return net.JoinHostPort(d.Host, SSHPort)
}

func (d Destination) String() string {
	return d.User + "@" + d.Host
}

// ParseDestination parses "[user@]host". The user defaults to the current
// user.
func ParseDestination(s string) (Destination, error) {
	var d Destination
	if i := strings.LastIndex(s, "@"); i >= 0 {
		d.User, d.Host = s[:i], s[i+1:]
		if d.User == "" {
			return Destination{}, gmerrors.Newf("empty user in destination %q", s)
		}
	} else {
		d.Host = s
	}
	if d.Host == "" {
		return Destination{}, gmerrors.Newf("missing host in destination %q", s)
	}
	if d.User == "" {
		d.User = currentUser()
	}
	return d, nil
}

// ParseRoot parses an SSH scan root "[user@]host:path". An empty path is the
// remote home directory.
func ParseRoot(root string) (Destination, string, error) {
	dest, dir, ok := strings.Cut(root, ":")
	if !ok {
		return Destination{}, "", gmerrors.Newf("ssh root %q is not of the form [user@]host:path", root)
	}
	d, err := ParseDestination(dest)
	if err != nil {
		return Destination{}, "", err
	}
	if dir == "" {
		dir = "."
	}
	return d, dir, nil
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// SSH reads a remote filesystem over one SFTP session.
type SSH struct {
	dest   Destination
	client *ssh.Client
	sftp   *sftp.Client
	stop   func() bool
	logger *slog.Logger
}

// DialSSH connects to dest on port 22, authenticating with the identities
// held by the SSH agent and verifying the host key against known_hosts.
// Cancelling ctx closes the session.
func DialSSH(ctx context.Context, dest Destination, opts ...Option) (*SSH, error) {
	o := newOptions(opts)
	logger := o.logger.With("destination", dest.String())

	ag := o.agent
	if ag == nil {
		conn, err := dialAgent(ctx)
		if err != nil {
			return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "cannot reach ssh-agent", err)
		}
		defer conn.Close()
		ag = agent.NewClient(conn)
	}
	signers, err := agentSigners(ag)
	if err != nil {
		return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "no usable identities", err)
	}

	knownHostsPath := o.knownHosts
	if knownHostsPath == "" {
		knownHostsPath, err = homedir.Expand("~/.ssh/known_hosts")
		if err != nil {
			return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "cannot locate known_hosts", err)
		}
	}
	hostKeys, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "cannot read known_hosts", err)
	}

	cfg := &ssh.ClientConfig{
		User:            dest.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKeys,
	}

	conn, err := o.dial(ctx, "tcp", dest.Addr())
	if err != nil {
		return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "connect failed", err)
	}
	// the handshake itself doesn't watch ctx
	stopHandshake := context.AfterFunc(ctx, func() { conn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, dest.Addr(), cfg)
	stopHandshake()
	if err != nil {
		conn.Close()
		return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "handshake failed", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, gmerrors.NewSessionErrorWithCause(discovery.KindSSH, dest.String(), "sftp subsystem unavailable", err)
	}
	logger.Debug("ssh session established", "signers", len(signers))

	s := &SSH{
		dest:   dest,
		client: client,
		sftp:   sftpClient,
		logger: logger,
	}
	s.stop = context.AfterFunc(ctx, func() { _ = s.closeSession() })
	return s, nil
}

func dialAgent(ctx context.Context) (net.Conn, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, gmerrors.New("SSH_AUTH_SOCK is not set")
	}
	var d net.Dialer
	return d.DialContext(ctx, "unix", sock)
}

// agentSigners returns the agent's identities. ssh.PublicKeys offers them to
// the server one at a time until one is accepted.
func agentSigners(ag agent.Agent) ([]ssh.Signer, error) {
	signers, err := ag.Signers()
	if err != nil {
		return nil, gmerrors.Wrap(err, "listing agent identities")
	}
	if len(signers) == 0 {
		return nil, gmerrors.New("ssh-agent holds no identities (try ssh-add)")
	}
	return signers, nil
}

// ResolvePath makes dir absolute against the remote working directory.
// A leading ~ is the remote home directory.
func (s *SSH) ResolvePath(dir string) (string, error) {
	if dir == "~" {
		dir = "."
	} else if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		dir = rest
	}
	resolved, err := s.sftp.RealPath(dir)
	if err != nil {
		return "", gmerrors.NewBackendError(discovery.KindSSH, "ResolvePath", dir, err)
	}
	return resolved, nil
}

// Destination returns the connected login.
func (s *SSH) Destination() Destination {
	return s.dest
}

func (s *SSH) Kind() string { return discovery.KindSSH }

func (s *SSH) IsDirectory(_ context.Context, p string) bool {
	info, err := s.sftp.Lstat(p)
	return err == nil && info.IsDir()
}

func (s *SSH) ListSubdirectories(_ context.Context, dir string) ([]string, error) {
	entries, err := s.sftp.ReadDir(dir)
	if err != nil {
		return nil, gmerrors.NewBackendError(discovery.KindSSH, "ListSubdirectories", dir, err)
	}

	subdirs := make([]string, 0, len(entries))
	for _, e := range entries {
		// symlinks have their own mode type, so IsDir excludes them
		if !e.IsDir() {
			continue
		}
		subdirs = append(subdirs, path.Join(dir, e.Name()))
	}
	sort.Strings(subdirs)
	return subdirs, nil
}

func (s *SSH) IsPrimaryWorktree(_ context.Context, dir string) bool {
	info, err := s.sftp.Lstat(path.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

func (s *SSH) ListRemotes(_ context.Context, dir string) []discovery.Remote {
	f, err := s.sftp.Open(path.Join(dir, ".git", "config"))
	if err != nil {
		s.logger.Warn("failed to open git config", "dir", dir, "error", err)
		return nil
	}
	defer f.Close()

	cfg, err := config.ReadConfig(f)
	if err != nil {
		s.logger.Warn("failed to parse git config", "dir", dir, "error", err)
		return nil
	}
	return remotesFromConfig(cfg)
}

// Close ends the SFTP and SSH sessions.
func (s *SSH) Close() error {
	if s.stop != nil && !s.stop() {
		// already closed by cancellation
		return nil
	}
	return s.closeSession()
}

func (s *SSH) closeSession() error {
	sftpErr := s.sftp.Close()
	clientErr := s.client.Close()
	if sftpErr != nil && !gmerrors.Is(sftpErr, net.ErrClosed) {
		return gmerrors.Wrap(sftpErr, "closing sftp session")
	}
	if clientErr != nil && !gmerrors.Is(clientErr, net.ErrClosed) {
		return gmerrors.Wrap(clientErr, "closing ssh connection")
	}
	return nil
}
