package cli

// This file implements the "kinds" command for listing the registered
// failure kinds with their categories and transience.

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

// KindsManager handles kind registry display.
type KindsManager struct {
	logger *zap.Logger
}

// NewKindsManager creates a KindsManager.
func NewKindsManager(logger *zap.Logger) *KindsManager {
	return &KindsManager{logger: logger}
}

// NewKindsCmd builds the kinds subcommand.
func NewKindsCmd(logger *zap.Logger) *cobra.Command {
	mgr := NewKindsManager(logger)
	return NewKindsCmdWithManager(mgr)
}

// NewKindsCmdWithManager returns the kinds subcommand using the provided manager.
func NewKindsCmdWithManager(mgr *KindsManager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List registered failure kinds",
		Long:  "List every registered failure kind with its category and transience",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mgr.ShowKinds()
		},
	}

	return cmd
}

// ShowKinds prints the kind registry in registration order.
func (m *KindsManager) ShowKinds() error {
	entries := fault.Kinds()

	rows := [][]string{{"KIND", "CATEGORY", "TRANSIENT"}}
	for _, entry := range entries {
		category := string(entry.Category)
		if entry.Category == fault.Programming {
			category = Red(category)
		}
		transient := "-"
		if entry.Transient {
			transient = Yellow("yes")
		}
		rows = append(rows, []string{entry.Name, category, transient})
	}

	Table(rows)
	m.logger.Debug("listed kinds", zap.Int("count", len(entries)))
	return nil
}
