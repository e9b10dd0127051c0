package enrich

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/osgraph/osgraph/internal/logger"
)

// Hit is one account discovered for an identifier. URL is empty for tools
// that only report the site.
type Hit struct {
	Site string
	URL  string
}

// Enumerator finds accounts registered under an identifier.
type Enumerator interface {
	Enumerate(ctx context.Context, identifier string) ([]Hit, error)
}

// UsernameEnumerator shells out to a username-search tool that prints one
// "[+] Site: URL" line per discovered account.
type UsernameEnumerator struct {
	Tool string
}

func (e *UsernameEnumerator) Enumerate(ctx context.Context, username string) ([]Hit, error) {
	out, err := runTool(ctx, e.Tool, "--print-found", username)
	if err != nil {
		return nil, err
	}
	hits := parseSiteHits(out)
	logger.Debug("username enumeration", "username", username, "hits", len(hits))
	return hits, nil
}

// EmailEnumerator shells out to an email-registration tool that prints one
// "[+] domain" line per site the address is registered on.
type EmailEnumerator struct {
	Tool string
}

func (e *EmailEnumerator) Enumerate(ctx context.Context, email string) ([]Hit, error) {
	out, err := runTool(ctx, e.Tool, "--only-used", email)
	if err != nil {
		return nil, err
	}
	hits := parseDomainHits(out)
	logger.Debug("email enumeration", "email", email, "hits", len(hits))
	return hits, nil
}

func runTool(ctx context.Context, tool string, args ...string) (string, error) {
	if tool == "" {
		return "", fmt.Errorf("enumeration tool not configured")
	}
	if _, err := exec.LookPath(tool); err != nil {
		return "", fmt.Errorf("%s not installed: %w", tool, err)
	}
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w", tool, err)
	}
	return buf.String(), nil
}

// parseSiteHits extracts "[+] Site: URL" result lines.
func parseSiteHits(out string) []Hit {
	var hits []Hit
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "[+] ") {
			continue
		}
		site, target, ok := strings.Cut(strings.TrimPrefix(line, "[+] "), ": ")
		if !ok {
			continue
		}
		hits = append(hits, Hit{Site: strings.TrimSpace(site), URL: strings.TrimSpace(target)})
	}
	return hits
}

// parseDomainHits extracts "[+] domain" result lines.
func parseDomainHits(out string) []Hit {
	var hits []Hit
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "[+] ") {
			continue
		}
		site := strings.TrimSpace(strings.TrimPrefix(line, "[+] "))
		if site == "" || strings.Contains(site, " ") {
			continue
		}
		hits = append(hits, Hit{Site: site})
	}
	return hits
}
