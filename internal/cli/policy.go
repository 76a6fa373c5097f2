package cli

// This file implements the "policy" command for managing the reporting
// policy file.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faultline/internal/policy"
	"faultline/pkg/fault"
)

// PolicyManager handles policy file operations.
type PolicyManager struct {
	logger *zap.Logger
}

// NewPolicyManager creates a PolicyManager.
func NewPolicyManager(logger *zap.Logger) *PolicyManager {
	return &PolicyManager{logger: logger}
}

// NewPolicyCmd builds the policy subcommand for managing the reporting policy.
func NewPolicyCmd(logger *zap.Logger) *cobra.Command {
	mgr := NewPolicyManager(logger)
	return NewPolicyCmdWithManager(mgr)
}

// NewPolicyCmdWithManager returns the policy subcommand using the provided manager.
func NewPolicyCmdWithManager(mgr *PolicyManager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the reporting policy",
		Long:  "Commands for creating, showing, and validating the reporting policy file",
	}

	cmd.AddCommand(mgr.newPolicyInitCmd())
	cmd.AddCommand(mgr.newPolicyShowCmd())
	cmd.AddCommand(mgr.newPolicyValidateCmd())

	return cmd
}

func (m *PolicyManager) newPolicyInitCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default policy file",
		Long:  "Write a default policy file (journal disabled, nothing muted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.InitPolicy(path, force)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Policy file path (defaults to ~/.faultline/policy.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing policy file")

	return cmd
}

func (m *PolicyManager) newPolicyShowCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective policy",
		Long:  "Show the effective reporting policy after file, environment, and defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.ShowPolicy(path)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Policy file path (defaults to ~/.faultline/policy.yaml)")

	return cmd
}

func (m *PolicyManager) newPolicyValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the policy file",
		Long:  "Validate the policy file against the kind registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.ValidatePolicy(path)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Policy file path (defaults to ~/.faultline/policy.yaml)")

	return cmd
}

// resolvePolicyPath returns path, or the default location when empty.
func (m *PolicyManager) resolvePolicyPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	defaultPath, err := policy.Path()
	if err != nil {
		wrappedErr := wrapWithSentinel(ErrGetHomeDirectoryFailed, err, fmt.Sprintf("failed to get home directory: %v", err))
		Error("Failed to get home directory")
		logStructuredError(m.logger, wrappedErr, "Failed to get home directory")
		return "", wrappedErr
	}
	return defaultPath, nil
}

// InitPolicy writes a default policy file.
func (m *PolicyManager) InitPolicy(path string, force bool) error {
	path, err := m.resolvePolicyPath(path)
	if err != nil {
		return err
	}

	if !force {
		if _, statErr := os.Stat(path); statErr == nil {
			err := newWithSentinel(ErrPolicyExists, fmt.Sprintf("policy file already exists at %s (use --force to overwrite)", path))
			Error("Policy file already exists")
			logStructuredError(m.logger, err, "Policy file already exists")
			return err
		}
	}

	if err := policy.Save(policy.Default(), path); err != nil {
		wrappedErr := wrapWithSentinelAndContext(
			ErrPolicySaveFailed,
			err,
			fmt.Sprintf("failed to save policy: %v", err),
			map[string]any{"path": path},
		)
		Error("Failed to save policy")
		logStructuredError(m.logger, wrappedErr, "Failed to save policy")
		return wrappedErr
	}

	Success(fmt.Sprintf("Policy written to %s", path))
	m.logger.Info("policy initialized", zap.String("path", path))
	return nil
}

// ShowPolicy prints the effective policy.
func (m *PolicyManager) ShowPolicy(path string) error {
	path, err := m.resolvePolicyPath(path)
	if err != nil {
		return err
	}

	p, err := policy.Resolve(path, nil)
	if err != nil {
		wrappedErr := wrapWithSentinelAndContext(
			ErrPolicyLoadFailed,
			err,
			fmt.Sprintf("failed to load policy: %v", err),
			map[string]any{"path": path},
		)
		Error("Failed to load policy")
		logStructuredError(m.logger, wrappedErr, "Failed to load policy")
		return wrappedErr
	}

	Section("Reporting policy")
	journalState := Yellow("disabled")
	if p.Journal.Enabled {
		journalState = Green("enabled")
	}
	DefaultPrinter.Printf("%s: %s\n", Cyan("Journal"), journalState)
	if p.Journal.Path != "" {
		DefaultPrinter.Printf("%s: %s\n", Cyan("Journal path"), p.Journal.Path)
	}

	if len(p.Kinds) == 0 {
		Info("No per-kind rules configured")
		return nil
	}

	rows := [][]string{{"KIND", "MUTED", "TRANSIENT OVERRIDE"}}
	for _, entry := range fault.Kinds() {
		rule, ok := p.Kinds[entry.Name]
		if !ok {
			continue
		}
		muted := "-"
		if rule.Mute {
			muted = Yellow("yes")
		}
		override := "-"
		if rule.Transient != nil {
			override = fmt.Sprintf("%t", *rule.Transient)
		}
		rows = append(rows, []string{entry.Name, muted, override})
	}
	Table(rows)
	return nil
}

// ValidatePolicy checks the policy file against the kind registry.
func (m *PolicyManager) ValidatePolicy(path string) error {
	path, err := m.resolvePolicyPath(path)
	if err != nil {
		return err
	}

	p, err := policy.Load(path)
	if err != nil {
		base := ErrPolicyInvalid
		if fault.IsKind(err, fault.KindIO) {
			base = ErrPolicyLoadFailed
		}
		wrappedErr := wrapWithSentinelAndContext(
			base,
			err,
			fmt.Sprintf("policy validation failed: %v", err),
			map[string]any{"path": path},
		)
		Error("Policy validation failed")
		logStructuredError(m.logger, wrappedErr, "Policy validation failed")
		return wrappedErr
	}
	if p == nil {
		err := newWithSentinel(ErrPolicyNotFound, fmt.Sprintf("no policy file found at %s", path))
		Warn("No policy file found")
		logStructuredError(m.logger, err, "No policy file found")
		return err
	}

	Success(fmt.Sprintf("Policy at %s is valid", path))
	m.logger.Debug("policy validated", zap.String("path", path))
	return nil
}
