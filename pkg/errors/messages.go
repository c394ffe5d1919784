package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable guidance.
// It examines the error chain and provides context-appropriate help text.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var configErr *ConfigError
	if As(err, &configErr) {
		return formatConfigError(configErr)
	}

	var sessionErr *SessionError
	if As(err, &sessionErr) {
		return formatSessionError(sessionErr)
	}

	var ghErr *GitHubError
	if As(err, &ghErr) {
		return formatGitHubError(ghErr)
	}

	return err.Error()
}

func formatConfigError(err *ConfigError) string {
	var b strings.Builder

	if err.Field != "" {
		fmt.Fprintf(&b, "Configuration error in '%s': %s\n", err.Field, err.Message)
	} else {
		fmt.Fprintf(&b, "Configuration error: %s\n", err.Message)
	}

	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check your config file: ~/.config/gitmoto/config.toml\n")
	b.WriteString("  • Run 'gitmoto config init' to write a default config\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

func formatSessionError(err *SessionError) string {
	var b strings.Builder

	b.WriteString(err.Error())
	b.WriteString("\n")

	if err.Backend == "ssh" {
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Make sure ssh-agent is running and SSH_AUTH_SOCK is set\n")
		b.WriteString("  • Add your key with 'ssh-add'\n")
		b.WriteString("  • Connect once with 'ssh' so the host key lands in known_hosts\n")
	}

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatGitHubError formats a GitHubError with actionable guidance based on status code.
func formatGitHubError(err *GitHubError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GitHub error during %s: %s\n", err.Operation, err.Message)

	switch err.StatusCode {
	case 401:
		b.WriteString("\nAuthentication failed. To fix this:\n")
		b.WriteString("  • Run 'gitmoto auth login' or 'gh auth login'\n")
		b.WriteString("  • Or set the GITMOTO_GITHUB_TOKEN environment variable\n")

	case 403, 429:
		b.WriteString("\nRate limit exceeded. To fix this:\n")
		b.WriteString("  • Wait for the quota window to reset\n")
		b.WriteString("  • Authenticate for a higher rate limit\n")

	case 404:
		b.WriteString("\nUser or repository not found. To fix this:\n")
		b.WriteString("  • Check github.users in your config\n")

	case 500, 502, 503, 504:
		b.WriteString("\nGitHub server error. To fix this:\n")
		b.WriteString("  • Wait a few moments and try again\n")
		b.WriteString("  • Check GitHub Status: https://www.githubstatus.com\n")
	}

	if err.Retryable {
		b.WriteString("\nThis error may be temporary. The request was retried automatically.\n")
	}

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}
