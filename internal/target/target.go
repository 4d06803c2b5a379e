// Package target parses host specifications and host lists.
package target

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
)

// Target represents a parsed `[user@]host[:port]` host specification.
// User and Port are empty when the token does not carry them.
type Target struct {
	User     string // remote user name
	Host     string // hostname or address, never empty
	Port     string // decimal port digits
	Original string // host token as given
}

var hostSpecPattern = regexp.MustCompile(`^(?:([^@:]+)@)?([^@:]+)(?::([0-9]+))?$`)

// ParseHostSpec parses a single host token. The whole token must match the grammar.
func ParseHostSpec(spec string) (Target, error) {
	m := hostSpecPattern.FindStringSubmatch(spec)
	if m == nil {
		return Target{}, cerrors.NewArgumentError(fmt.Sprintf("invalid host format: %s", spec), nil)
	}
	return Target{User: m[1], Host: m[2], Port: m[3], Original: spec}, nil
}

// ParseHostSpecs parses every token, failing on the first malformed one.
func ParseHostSpecs(specs []string) ([]Target, error) {
	targets := make([]Target, 0, len(specs))
	for _, spec := range specs {
		t, err := ParseHostSpec(spec)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Address returns the `[user@]host` string passed to the transport.
func (t Target) Address() string {
	if t.User == "" {
		return t.Host
	}
	return t.User + "@" + t.Host
}

// HasPort reports whether the token specified a port.
func (t Target) HasPort() bool {
	return t.Port != ""
}

// String reconstructs the `[user@]host[:port]` form.
func (t Target) String() string {
	if t.HasPort() {
		return t.Address() + ":" + t.Port
	}
	return t.Address()
}

// LoadHostFile reads host tokens from a file, one per line. Blank lines are ignored.
func LoadHostFile(filename string) ([]string, error) {
	file, err := os.Open(filename) //nolint:gosec // user-supplied hosts file
	if err != nil {
		return nil, cerrors.NewResourceError("failed to open host file", err)
	}
	defer file.Close()

	hosts, err := ReadHosts(file)
	if err != nil {
		return nil, cerrors.NewResourceError(fmt.Sprintf("failed to read host file %s", filename), err)
	}
	return hosts, nil
}

// ReadHosts reads host tokens from r, one per line, trimming whitespace and skipping blank lines.
func ReadHosts(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	hosts := make([]string, 0)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		hosts = append(hosts, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	return hosts, nil
}

// SplitHostString splits a space-separated host list. A list that is
// present but contains no tokens is an argument error.
func SplitHostString(s string) ([]string, error) {
	hosts := strings.Fields(s)
	if len(hosts) == 0 {
		return nil, cerrors.NewArgumentError("empty host string", nil)
	}
	return hosts, nil
}
