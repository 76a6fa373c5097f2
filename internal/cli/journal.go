package cli

// This file implements the "journal" command for inspecting and pruning
// the persistent failure journal.

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faultline/internal/journal"
	"faultline/pkg/fault"
)

// journalOpener opens a journal at path, falling back to the default
// location when path is empty. Seam for tests.
type journalOpener func(path string, logger *zap.Logger) (*journal.Journal, error)

var defaultJournalOpener journalOpener = func(path string, logger *zap.Logger) (*journal.Journal, error) {
	if path == "" {
		return journal.Open(logger)
	}
	return journal.OpenAt(path, logger)
}

// JournalManager handles journal queries with injected dependencies.
type JournalManager struct {
	open   journalOpener
	logger *zap.Logger
}

// NewJournalManager creates a JournalManager with the given dependencies.
func NewJournalManager(open journalOpener, logger *zap.Logger) *JournalManager {
	return &JournalManager{
		open:   open,
		logger: logger,
	}
}

// DefaultJournalManager returns a JournalManager using the default opener.
func DefaultJournalManager(logger *zap.Logger) *JournalManager {
	return NewJournalManager(defaultJournalOpener, logger)
}

// NewJournalCmd builds the journal subcommand for inspecting recorded failures.
func NewJournalCmd(logger *zap.Logger) *cobra.Command {
	mgr := DefaultJournalManager(logger)
	return NewJournalCmdWithManager(mgr)
}

// NewJournalCmdWithManager returns the journal subcommand using the provided manager.
func NewJournalCmdWithManager(mgr *JournalManager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the failure journal",
		Long:  "Commands for listing and pruning journaled failure reports",
	}

	cmd.AddCommand(mgr.newJournalListCmd())
	cmd.AddCommand(mgr.newJournalPruneCmd())

	return cmd
}

func (m *JournalManager) newJournalListCmd() *cobra.Command {
	var path string
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled failures",
		Long:  "List the most recent journaled failures, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.ListEntries(path, kind, limit)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Journal database path (defaults to ~/.faultline/journal.db)")
	cmd.Flags().StringVar(&kind, "kind", "", "Only show failures of this kind")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")

	return cmd
}

func (m *JournalManager) newJournalPruneCmd() *cobra.Command {
	var path string
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old journal entries",
		Long:  "Remove journaled failures older than the given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.PruneEntries(path, olderThan)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Journal database path (defaults to ~/.faultline/journal.db)")
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove entries older than this age")

	return cmd
}

// ListEntries prints the most recent journal entries, optionally
// filtered by kind.
func (m *JournalManager) ListEntries(path, kind string, limit int) error {
	if kind != "" && !fault.IsValidKind(kind) {
		err := newWithSentinel(ErrUnknownKindFilter, fmt.Sprintf("unknown kind %q (run 'faultline kinds' for the registry)", kind))
		Error("Unknown kind filter")
		logStructuredError(m.logger, err, "Unknown kind filter")
		return err
	}

	j, err := m.open(path, m.logger)
	if err != nil {
		wrappedErr := wrapWithSentinelAndContext(
			ErrJournalOpenFailed,
			err,
			fmt.Sprintf("failed to open journal: %v", err),
			map[string]any{"path": path},
		)
		Error("Failed to open journal")
		logStructuredError(m.logger, wrappedErr, "Failed to open journal")
		return wrappedErr
	}
	defer j.Close()

	entries, err := j.List(context.Background(), kind, limit)
	if err != nil {
		wrappedErr := wrapWithSentinel(ErrJournalListFailed, err, fmt.Sprintf("failed to list journal entries: %v", err))
		Error("Failed to list journal entries")
		logStructuredError(m.logger, wrappedErr, "Failed to list journal entries")
		return wrappedErr
	}

	if len(entries) == 0 {
		Info("Journal is empty")
		return nil
	}

	rows := [][]string{{"WHEN", "KIND", "CATEGORY", "MESSAGE"}}
	for _, entry := range entries {
		kindCell := entry.Kind
		if entry.Transient {
			kindCell += " " + Yellow("(transient)")
		}
		rows = append(rows, []string{
			entry.ReportedAt.Format(time.RFC3339),
			kindCell,
			entry.Category,
			entry.Message,
		})
	}
	TableBoxed(rows)

	m.logger.Debug("listed journal entries", zap.Int("count", len(entries)))
	return nil
}

// PruneEntries removes entries older than the given age.
func (m *JournalManager) PruneEntries(path string, olderThan time.Duration) error {
	if olderThan <= 0 {
		err := newWithSentinel(ErrInvalidPruneAge, fmt.Sprintf("invalid prune age %s (must be positive)", olderThan))
		Error("Invalid prune age")
		logStructuredError(m.logger, err, "Invalid prune age")
		return err
	}

	j, err := m.open(path, m.logger)
	if err != nil {
		wrappedErr := wrapWithSentinelAndContext(
			ErrJournalOpenFailed,
			err,
			fmt.Sprintf("failed to open journal: %v", err),
			map[string]any{"path": path},
		)
		Error("Failed to open journal")
		logStructuredError(m.logger, wrappedErr, "Failed to open journal")
		return wrappedErr
	}
	defer j.Close()

	cutoff := time.Now().Add(-olderThan)
	removed, err := j.Prune(context.Background(), cutoff)
	if err != nil {
		wrappedErr := wrapWithSentinel(ErrJournalPruneFailed, err, fmt.Sprintf("failed to prune journal entries: %v", err))
		Error("Failed to prune journal entries")
		logStructuredError(m.logger, wrappedErr, "Failed to prune journal entries")
		return wrappedErr
	}

	Success(fmt.Sprintf("Removed %d entries older than %s", removed, olderThan))
	m.logger.Info("pruned journal", zap.Int64("removed", removed), zap.Duration("older_than", olderThan))
	return nil
}
