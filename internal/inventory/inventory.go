// Package inventory loads host lists from Ansible-style inventory files.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
	"github.com/mogproject/color-ssh/internal/target"
)

// Provider yields host tokens in `[user@]host[:port]` form.
type Provider interface {
	// Hosts returns every host in the inventory, each once.
	Hosts() ([]string, error)

	// HostsByGroup returns the hosts of one group, including its children.
	HostsByGroup(group string) ([]string, error)
}

// AnsibleInventory reads a YAML or JSON inventory file.
type AnsibleInventory struct {
	path string
}

// NewAnsibleInventory creates a new Ansible inventory provider
func NewAnsibleInventory(path string) *AnsibleInventory {
	return &AnsibleInventory{path: path}
}

// AnsibleGroup represents an Ansible inventory group
type AnsibleGroup struct {
	Hosts    map[string]*AnsibleHost  `yaml:"hosts" json:"hosts"`
	Children map[string]*AnsibleGroup `yaml:"children" json:"children"`
}

// AnsibleHost represents the connection variables of one inventory host
type AnsibleHost struct {
	AnsibleHost string `yaml:"ansible_host" json:"ansible_host"`
	AnsiblePort int    `yaml:"ansible_port" json:"ansible_port"`
	AnsibleUser string `yaml:"ansible_user" json:"ansible_user"`
}

// Hosts walks all groups in name order and returns their hosts.
func (ai *AnsibleInventory) Hosts() ([]string, error) {
	groups, err := ai.load()
	if err != nil {
		return nil, err
	}

	var hosts []string
	processed := make(map[string]bool)
	for _, name := range sortedKeys(groups) {
		h, err := processGroup(groups[name], processed)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h...)
	}
	return hosts, nil
}

// Groups returns the top-level group names
func (ai *AnsibleInventory) Groups() ([]string, error) {
	groups, err := ai.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(groups), nil
}

// HostsByGroup returns the hosts of a top-level group
func (ai *AnsibleInventory) HostsByGroup(group string) ([]string, error) {
	groups, err := ai.load()
	if err != nil {
		return nil, err
	}

	g, exists := groups[group]
	if !exists {
		return nil, cerrors.NewArgumentError(fmt.Sprintf("group '%s' not found in inventory (groups: %s)",
			group, strings.Join(sortedKeys(groups), ", ")), nil)
	}
	return processGroup(g, make(map[string]bool))
}

func (ai *AnsibleInventory) load() (map[string]*AnsibleGroup, error) {
	content, err := os.ReadFile(ai.path)
	if err != nil {
		return nil, cerrors.NewResourceError("failed to read inventory file", err)
	}

	var groups map[string]*AnsibleGroup
	if strings.ToLower(filepath.Ext(ai.path)) == ".json" {
		err = json.Unmarshal(content, &groups)
	} else {
		err = yaml.Unmarshal(content, &groups)
	}
	if err != nil {
		return nil, cerrors.NewArgumentError(fmt.Sprintf("failed to parse inventory file %s", ai.path), err)
	}
	return groups, nil
}

// processGroup collects the group's own hosts, then its children recursively.
func processGroup(group *AnsibleGroup, processed map[string]bool) ([]string, error) {
	if group == nil {
		return nil, nil
	}

	var hosts []string
	for _, name := range sortedKeys(group.Hosts) {
		if processed[name] {
			continue
		}
		processed[name] = true

		spec := hostSpec(name, group.Hosts[name])
		if _, err := target.ParseHostSpec(spec); err != nil {
			return nil, err
		}
		hosts = append(hosts, spec)
	}

	for _, name := range sortedKeys(group.Children) {
		child, err := processGroup(group.Children[name], processed)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, child...)
	}
	return hosts, nil
}

// hostSpec converts an inventory entry to a `[user@]host[:port]` token.
func hostSpec(name string, host *AnsibleHost) string {
	t := target.Target{Host: name}
	if host == nil {
		return t.String()
	}

	if host.AnsibleHost != "" {
		t.Host = host.AnsibleHost
	}
	t.User = host.AnsibleUser
	if host.AnsiblePort > 0 {
		t.Port = strconv.Itoa(host.AnsiblePort)
	}
	return t.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadInventoryFromFile picks a provider based on the file extension
func LoadInventoryFromFile(path string) (Provider, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yml", ".yaml", ".json":
		return NewAnsibleInventory(path), nil
	default:
		return nil, cerrors.NewArgumentError(fmt.Sprintf("unsupported inventory file format: %s", ext), nil)
	}
}
