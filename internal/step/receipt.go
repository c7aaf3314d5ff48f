// SPDX-License-Identifier: MPL-2.0

package step

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// receiptFileName is the receipt's file name inside the state directory.
const receiptFileName = "receipt.toml"

type (
	// ReceiptEntry records the last outcome of one step.
	ReceiptEntry struct {
		Outcome   string    `toml:"outcome"`
		AppliedAt time.Time `toml:"applied_at"`
	}

	// Receipt is the on-disk record of the most recent run per step.
	// It exists so `termhost status` can show when a step last ran; it is
	// never consulted to decide whether a step needs to run again.
	Receipt struct {
		UpdatedAt time.Time               `toml:"updated_at"`
		Steps     map[string]ReceiptEntry `toml:"steps"`
	}
)

// LoadReceipt reads the receipt from stateDir. A missing file yields an
// empty receipt, not an error.
func LoadReceipt(stateDir string) (*Receipt, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, receiptFileName))
	if os.IsNotExist(err) {
		return &Receipt{Steps: make(map[string]ReceiptEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}

	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse receipt: %w", err)
	}
	if r.Steps == nil {
		r.Steps = make(map[string]ReceiptEntry)
	}
	return &r, nil
}

// Record merges run results into the receipt. Skipped and declined steps
// leave the previous entry untouched.
func (r *Receipt) Record(results []Result, now time.Time) {
	for _, res := range results {
		switch res.Outcome {
		case OutcomeSkipped, OutcomeDeclined:
			continue
		default:
			r.Steps[res.Name] = ReceiptEntry{
				Outcome:   res.Outcome.String(),
				AppliedAt: now,
			}
		}
	}
	r.UpdatedAt = now
}

// Save writes the receipt to stateDir, creating the directory if needed.
func (r *Receipt) Save(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	if err := os.WriteFile(filepath.Join(stateDir, receiptFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// Last returns the recorded entry for a step name, if any.
func (r *Receipt) Last(name string) (ReceiptEntry, bool) {
	e, ok := r.Steps[name]
	return e, ok
}
