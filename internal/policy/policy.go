// Package policy controls which unhandled fault reports reach the
// configured sinks. A policy can mute individual kinds or override
// their transience for retry decisions; it can never change a kind's
// category, which is fixed when the kind is registered.
package policy

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"faultline/pkg/fault"
)

const (
	dirName  = ".faultline"
	fileName = "policy.yaml"
)

// Rule is the per-kind reporting rule.
type Rule struct {
	// Mute drops reports of this kind before they reach any sink.
	Mute bool `yaml:"mute,omitempty"`
	// Transient overrides the registered transience for retry
	// decisions. Only recoverable kinds may carry an override.
	Transient *bool `yaml:"transient,omitempty"`
}

// Policy is the on-disk reporting configuration.
type Policy struct {
	Journal JournalConfig   `yaml:"journal"`
	Kinds   map[string]Rule `yaml:"kinds,omitempty"`
}

// JournalConfig controls the persistent failure journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns the policy used when no file exists: journal off,
// nothing muted.
func Default() *Policy {
	return &Policy{}
}

// Path returns the policy file location under the user's home directory.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fault.Wrap(fault.KindIO, "resolve home directory", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Save validates and writes the policy to path.
func Save(p *Policy, path string) error {
	if err := Validate(p); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fault.Wrap(fault.KindIO, "create policy directory", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "marshal policy", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fault.Wrap(fault.KindIO, "write policy file", err)
	}
	return nil
}

// Load reads and validates the policy at path. A missing file is not an
// error; it returns (nil, nil) so callers can fall back to Default.
func Load(path string) (*Policy, error) {
	// #nosec G304 -- path is scoped to the user's config directory.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fault.Wrap(fault.KindIO, "read policy file", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fault.Wrap(fault.KindMalformedInput, "unmarshal policy file", err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Overrides carries flag-level settings that take precedence over the
// environment and the policy file.
type Overrides struct {
	Journal     *bool
	JournalPath string
	Mute        []string
}

// Resolve builds the effective policy using precedence:
// CLI flags > environment variables (FAULTLINE_*) > policy file.
func Resolve(path string, flags *Overrides) (*Policy, error) {
	p := Default()

	filePolicy, err := Load(path)
	if err != nil {
		return nil, err
	}
	if filePolicy != nil {
		p = filePolicy
	}

	applyEnv(p)

	if flags != nil {
		if flags.Journal != nil {
			p.Journal.Enabled = *flags.Journal
		}
		if flags.JournalPath != "" {
			p.Journal.Path = flags.JournalPath
		}
		for _, kind := range flags.Mute {
			rule := p.Kinds[kind]
			rule.Mute = true
			p.setRule(kind, rule)
		}
	}

	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func applyEnv(p *Policy) {
	if v := os.Getenv("FAULTLINE_JOURNAL"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			p.Journal.Enabled = enabled
		}
	}
	if v := os.Getenv("FAULTLINE_JOURNAL_PATH"); v != "" {
		p.Journal.Path = v
	}
	if v := os.Getenv("FAULTLINE_MUTE"); v != "" {
		for _, kind := range strings.Split(v, ",") {
			kind = strings.TrimSpace(kind)
			if kind == "" {
				continue
			}
			rule := p.Kinds[kind]
			rule.Mute = true
			p.setRule(kind, rule)
		}
	}
}

func (p *Policy) setRule(kind string, rule Rule) {
	if p.Kinds == nil {
		p.Kinds = map[string]Rule{}
	}
	p.Kinds[kind] = rule
}

// Validate rejects rules that reference unregistered kinds or try to
// mark a programming kind transient.
func Validate(p *Policy) error {
	if p == nil {
		return fault.New(fault.KindPreconditionViolated, "policy is nil")
	}
	for name, rule := range p.Kinds {
		kind, ok := fault.LookupKind(name)
		if !ok {
			return fault.Newf(fault.KindMalformedInput, "policy references unknown kind %q", name)
		}
		if rule.Transient != nil && kind.Category() != fault.Recoverable {
			return fault.Newf(fault.KindMalformedInput, "kind %q is a programming kind and cannot be transient", name)
		}
	}
	return nil
}

// Muted reports whether records of the named kind are dropped.
func (p *Policy) Muted(kind string) bool {
	if p == nil {
		return false
	}
	return p.Kinds[kind].Mute
}

// TransientFor returns the effective transience for kind: the policy
// override when present, the registered attribute otherwise.
func (p *Policy) TransientFor(kind fault.Kind) bool {
	if p != nil {
		if rule, ok := p.Kinds[kind.Name()]; ok && rule.Transient != nil {
			return *rule.Transient
		}
	}
	return kind.Transient()
}

// Filter wraps next so muted kinds never reach it.
func (p *Policy) Filter(next fault.Reporter) fault.Reporter {
	return fault.ReporterFunc(func(rec *fault.Record) {
		if rec == nil || next == nil {
			return
		}
		if p.Muted(rec.Kind().Name()) {
			return
		}
		next.Report(rec)
	})
}
