package backend

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/config"
	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

func TestParseDestination(t *testing.T) {
	t.Setenv("USER", "alice")

	tests := []struct {
		in      string
		want    Destination
		wantErr bool
	}{
		{in: "devbox", want: Destination{User: "alice", Host: "devbox"}},
		{in: "bob@devbox", want: Destination{User: "bob", Host: "devbox"}},
		{in: "bob@corp@devbox", want: Destination{User: "bob@corp", Host: "devbox"}},
		{in: "", wantErr: true},
		{in: "bob@", wantErr: true},
		{in: "@devbox", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDestination(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Host+":22", got.Addr())
		})
	}
}

func TestParseRoot(t *testing.T) {
	t.Setenv("USER", "alice")

	dest, dir, err := ParseRoot("bob@devbox:/srv/git")
	require.NoError(t, err)
	assert.Equal(t, Destination{User: "bob", Host: "devbox"}, dest)
	assert.Equal(t, "/srv/git", dir)

	dest, dir, err = ParseRoot("devbox:")
	require.NoError(t, err)
	assert.Equal(t, "alice@devbox", dest.String())
	assert.Equal(t, ".", dir)

	_, _, err = ParseRoot("devbox")
	assert.Error(t, err)
}

func TestAgentSigners(t *testing.T) {
	keyring := agent.NewKeyring()

	_, err := agentSigners(keyring)
	require.Error(t, err, "empty agent must fail")
	assert.Contains(t, err.Error(), "ssh-add")

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: priv}))

	signers, err := agentSigners(keyring)
	require.NoError(t, err)
	assert.Len(t, signers, 1)
}

func TestRemotesFromConfig(t *testing.T) {
	raw := `[core]
	bare = false
[remote "upstream"]
	url = https://github.com/them/r.git
	fetch = +refs/heads/*:refs/remotes/upstream/*
[remote "origin"]
	url = git@github.com:me/r.git
	url = git@mirror:me/r.git
[remote "empty"]
	fetch = +refs/heads/*:refs/remotes/empty/*
`
	cfg, err := config.ReadConfig(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, []discovery.Remote{
		{Name: "origin", URL: "git@github.com:me/r.git"},
		{Name: "upstream", URL: "https://github.com/them/r.git"},
	}, remotesFromConfig(cfg))
}

func TestDialSSH_NoIdentities(t *testing.T) {
	_, err := DialSSH(context.Background(), Destination{User: "u", Host: "devbox"}, WithAgent(agent.NewKeyring()))
	require.Error(t, err)
	assert.True(t, gmerrors.IsSessionError(err))
}

func TestDialSSH_NoAgentSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	_, err := DialSSH(context.Background(), Destination{User: "u", Host: "devbox"})
	require.Error(t, err)
	assert.True(t, gmerrors.IsSessionError(err))
	assert.Contains(t, err.Error(), "ssh-agent")
}

// sshFixture is an in-process SSH server with an SFTP subsystem serving the
// local filesystem.
type sshFixture struct {
	addr       string
	knownHosts string
	agent      agent.Agent
}

func newSSHFixture(t *testing.T, hostname string) *sshFixture {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	clientPub, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	authorized, err := ssh.NewPublicKey(clientPub)
	require.NoError(t, err)

	serverCfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(authorized.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, gmerrors.New("unauthorized key")
		},
	}
	serverCfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go serveSSH(ln, serverCfg)

	knownHostsPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{hostname}, hostSigner.PublicKey())
	require.NoError(t, os.WriteFile(knownHostsPath, []byte(line+"\n"), 0o600))

	keyring := agent.NewKeyring()
	require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: clientPriv}))

	return &sshFixture{addr: ln.Addr().String(), knownHosts: knownHostsPath, agent: keyring}
}

func (f *sshFixture) options() []Option {
	return []Option{
		WithAgent(f.agent),
		WithKnownHosts(f.knownHosts),
		WithDialer(func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, f.addr)
		}),
	}
}

func serveSSH(ln net.Listener, cfg *ssh.ServerConfig) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func() {
			_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
			if err != nil {
				conn.Close()
				return
			}
			go ssh.DiscardRequests(reqs)
			for newCh := range chans {
				if newCh.ChannelType() != "session" {
					_ = newCh.Reject(ssh.UnknownChannelType, "unsupported")
					continue
				}
				ch, requests, err := newCh.Accept()
				if err != nil {
					continue
				}
				go func() {
					for req := range requests {
						ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
						_ = req.Reply(ok, nil)
						if ok {
							server, err := sftp.NewServer(ch)
							if err != nil {
								ch.Close()
								return
							}
							if err := server.Serve(); err != nil && err != io.EOF {
								ch.Close()
							}
							return
						}
					}
				}()
			}
		}()
	}
}

func TestSSH_Walk(t *testing.T) {
	fixture := newSSHFixture(t, "devbox")

	root := t.TempDir()
	mustInitRepo(t, filepath.Join(root, "a", "repo"), map[string]string{"origin": "git@example.com:me/repo.git"})
	mustMkdir(t, filepath.Join(root, "a", "repo", "sub"))
	mustCreateFile(t, filepath.Join(root, "linked", ".git"), "gitdir: /x\n")
	mustInitRepo(t, filepath.Join(root, "top"), nil)

	ctx := context.Background()
	s, err := DialSSH(ctx, Destination{User: "me", Host: "devbox"}, fixture.options()...)
	require.NoError(t, err)

	resolved, err := s.ResolvePath(root)
	require.NoError(t, err)
	assert.True(t, s.IsDirectory(ctx, resolved))

	var repos []discovery.Repository
	for res := range discovery.NewEngine(s).Walk(ctx, []string{resolved}) {
		require.NoError(t, res.Warning)
		repos = append(repos, *res.Repository)
	}

	require.Len(t, repos, 2)
	assert.Equal(t, filepath.ToSlash(filepath.Join(resolved, "top")), repos[0].Path)
	assert.Equal(t, filepath.ToSlash(filepath.Join(resolved, "a", "repo")), repos[1].Path)
	assert.Equal(t, discovery.KindSSH, repos[1].Backend)
	assert.Equal(t, []discovery.Remote{{Name: "origin", URL: "git@example.com:me/repo.git"}}, repos[1].Remotes)
}

func TestSSH_ListingErrorNamesDirectory(t *testing.T) {
	fixture := newSSHFixture(t, "devbox")
	missing := filepath.Join(t.TempDir(), "missing")

	s, err := DialSSH(context.Background(), Destination{User: "me", Host: "devbox"}, fixture.options()...)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ListSubdirectories(context.Background(), missing)
	require.Error(t, err)
	assert.True(t, gmerrors.IsBackendError(err))
	assert.Contains(t, err.Error(), missing)
}

func TestDialSSH_UnknownHostKey(t *testing.T) {
	fixture := newSSHFixture(t, "other-host")

	_, err := DialSSH(context.Background(), Destination{User: "me", Host: "devbox"}, fixture.options()...)
	require.Error(t, err)
	assert.True(t, gmerrors.IsSessionError(err))
}

func TestDialSSH_RejectedIdentity(t *testing.T) {
	fixture := newSSHFixture(t, "devbox")

	stranger := agent.NewKeyring()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.NoError(t, stranger.Add(agent.AddedKey{PrivateKey: priv}))

	opts := append(fixture.options(), WithAgent(stranger))
	_, err = DialSSH(context.Background(), Destination{User: "me", Host: "devbox"}, opts...)
	require.Error(t, err)
	assert.True(t, gmerrors.IsSessionError(err))
}

func TestSSH_CancelClosesSession(t *testing.T) {
	fixture := newSSHFixture(t, "devbox")

	ctx, cancel := context.WithCancel(context.Background())
	s, err := DialSSH(ctx, Destination{User: "me", Host: "devbox"}, fixture.options()...)
	require.NoError(t, err)

	cancel()
	// the session is torn down asynchronously; Close must still be safe
	assert.NoError(t, s.Close())
}
