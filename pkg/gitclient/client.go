package gitclient

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// Client is a configured git client command.
type Client struct {
	command string
	args    []string
	detach  bool
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDetach starts the client without waiting for it, for GUI clients.
func WithDetach(detach bool) Option {
	return func(c *Client) {
		c.detach = detach
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client running command with the given argument templates.
func New(command string, args []string, opts ...Option) (*Client, error) {
	if command == "" {
		return nil, gmerrors.NewConfigError("git_client.command", "command is required")
	}
	if _, err := FormatArgs(args, "dummy/path"); err != nil {
		return nil, gmerrors.NewConfigErrorWithCause("git_client.args", "invalid template", err)
	}

	c := &Client{
		command: command,
		args:    args,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Detached reports whether the client runs in the background.
func (c *Client) Detached() bool {
	return c.detach
}

// Command builds the command for the repository at path. The working
// directory is the repository.
func (c *Client) Command(ctx context.Context, path string) (*exec.Cmd, error) {
	args, err := FormatArgs(c.args, path)
	if err != nil {
		return nil, err
	}
	if c.detach {
		// outlives the caller
		ctx = context.WithoutCancel(ctx)
	}
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = path
	return cmd, nil
}

// Launch runs the client on path with the terminal attached, or starts it in
// the background when detached.
func (c *Client) Launch(ctx context.Context, path string) error {
	cmd, err := c.Command(ctx, path)
	if err != nil {
		return err
	}
	c.logger.Debug("launching git client", "command", cmd.Path, "args", cmd.Args[1:], "detach", c.detach)

	if c.detach {
		if err := cmd.Start(); err != nil {
			return gmerrors.Wrapf(err, "starting %s", c.command)
		}
		go func() {
			if err := cmd.Wait(); err != nil {
				c.logger.Debug("git client exited", "error", err)
			}
		}()
		return nil
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return gmerrors.Wrapf(err, "running %s", c.command)
	}
	return nil
}
