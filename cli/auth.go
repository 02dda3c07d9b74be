// ABOUTME: Terminal auth provider for the CLI
// ABOUTME: Email login prompt with hidden store-token entry
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/harperreed/opsdesk/auth"
	"github.com/harperreed/opsdesk/models"
)

// PromptAuthenticator reads the identity from the terminal. It is the
// CLI stand-in for the hosted auth provider: identity transitions are
// pushed to the registered observer like any other provider.
type PromptAuthenticator struct {
	in  io.Reader
	out io.Writer

	mu       sync.Mutex
	observer func(*auth.Identity)
	identity *auth.Identity
}

// NewPromptAuthenticator prompts on stdin/stdout. email may be empty, in
// which case login asks for it.
func NewPromptAuthenticator(email string) *PromptAuthenticator {
	p := &PromptAuthenticator{in: os.Stdin, out: os.Stdout}
	if normalized := models.NormalizeEmail(email); normalized != "" {
		p.identity = &auth.Identity{Email: normalized}
	}
	return p
}

func (p *PromptAuthenticator) BeginInteractiveLogin() (auth.Identity, error) {
	fmt.Fprint(p.out, "Email: ")
	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return auth.Identity{}, fmt.Errorf("failed to read email: %w", err)
	}
	email := models.NormalizeEmail(strings.TrimSuffix(line, "\n"))
	if email == "" {
		return auth.Identity{}, fmt.Errorf("email is required")
	}

	identity := auth.Identity{Email: email}
	p.mu.Lock()
	p.identity = &identity
	observer := p.observer
	p.mu.Unlock()
	if observer != nil {
		observer(&identity)
	}
	return identity, nil
}

func (p *PromptAuthenticator) EndSession() error {
	p.mu.Lock()
	p.identity = nil
	observer := p.observer
	p.mu.Unlock()
	if observer != nil {
		observer(nil)
	}
	return nil
}

func (p *PromptAuthenticator) OnIdentityChange(fn func(*auth.Identity)) (func(), error) {
	p.mu.Lock()
	p.observer = fn
	identity := p.identity
	p.mu.Unlock()
	fn(identity)

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.mu.Lock()
			p.observer = nil
			p.mu.Unlock()
		})
	}
	return release, nil
}

// PromptSecret reads a credential without echoing when stdin is a
// terminal, falling back to a plain line read otherwise (pipes, tests).
func PromptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stdout, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stdout)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", label, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}
