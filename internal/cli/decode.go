package cli

// This file implements the "decode" command for turning a serialized
// failure envelope back into a readable chain view.

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"faultline/pkg/fault"
)

// DecodeManager handles envelope decoding with an injected input stream.
type DecodeManager struct {
	stdin  io.Reader
	logger *zap.Logger
}

// NewDecodeManager creates a DecodeManager reading envelopes from stdin.
func NewDecodeManager(stdin io.Reader, logger *zap.Logger) *DecodeManager {
	return &DecodeManager{
		stdin:  stdin,
		logger: logger,
	}
}

// DefaultDecodeManager returns a DecodeManager reading os.Stdin.
func DefaultDecodeManager(logger *zap.Logger) *DecodeManager {
	return NewDecodeManager(os.Stdin, logger)
}

// NewDecodeCmd builds the decode subcommand.
func NewDecodeCmd(logger *zap.Logger) *cobra.Command {
	mgr := DefaultDecodeManager(logger)
	return NewDecodeCmdWithManager(mgr)
}

// NewDecodeCmdWithManager returns the decode subcommand using the provided manager.
func NewDecodeCmdWithManager(mgr *DecodeManager) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a JSON failure envelope",
		Long:  "Decode a JSON failure envelope into a readable failure chain with kinds and context",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mgr.Decode(file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Envelope file to decode (defaults to stdin)")

	return cmd
}

// Decode reads an envelope from file or stdin and prints the chain.
func (m *DecodeManager) Decode(file string) error {
	data, err := m.readEnvelope(file)
	if err != nil {
		return err
	}

	envelope, err := fault.Decode(data)
	if err != nil {
		wrappedErr := wrapWithSentinel(ErrEnvelopeDecodeFailed, err, fmt.Sprintf("failed to decode envelope: %v", err))
		Error("Failed to decode envelope")
		logStructuredError(m.logger, wrappedErr, "Failed to decode envelope")
		return wrappedErr
	}

	rec := fault.From(envelope.Err())

	Section("Decoded failure")
	DefaultPrinter.Printf("%s: %s\n", Cyan("Kind"), rec.Kind().Name())
	DefaultPrinter.Printf("%s: %s\n", Cyan("Category"), string(rec.Category()))
	DefaultPrinter.Printf("%s: %s\n", Cyan("Message"), rec.Message())
	if ctx := rec.Context(); len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for key := range ctx {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			DefaultPrinter.Printf("%s: %v\n", Cyan("Context."+key), ctx[key])
		}
	}

	Section("Chain")
	DefaultPrinter.Println(fault.DebugString(rec))

	m.logger.Debug("decoded envelope", zap.String("kind", rec.Kind().Name()))
	return nil
}

// readEnvelope reads the raw envelope bytes from the file flag or the
// input stream. An interactive terminal on stdin means nothing was
// piped in, so the command fails fast instead of hanging on a read.
func (m *DecodeManager) readEnvelope(file string) ([]byte, error) {
	if file != "" {
		// #nosec G304 -- the path is supplied by the operator on purpose.
		data, err := os.ReadFile(file)
		if err != nil {
			wrappedErr := wrapWithSentinelAndContext(
				ErrEnvelopeReadFailed,
				err,
				fmt.Sprintf("failed to read envelope: %v", err),
				map[string]any{"file": file},
			)
			Error("Failed to read envelope")
			logStructuredError(m.logger, wrappedErr, "Failed to read envelope")
			return nil, wrappedErr
		}
		return data, nil
	}

	if f, ok := m.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		err := newWithSentinel(ErrEnvelopeInputRequired, "no envelope on stdin (pass --file or pipe JSON)")
		Error("Envelope input required")
		logStructuredError(m.logger, err, "Envelope input required")
		return nil, err
	}

	data, err := io.ReadAll(m.stdin)
	if err != nil {
		wrappedErr := wrapWithSentinel(ErrEnvelopeReadFailed, err, fmt.Sprintf("failed to read envelope from stdin: %v", err))
		Error("Failed to read envelope")
		logStructuredError(m.logger, wrappedErr, "Failed to read envelope")
		return nil, wrappedErr
	}
	return data, nil
}
