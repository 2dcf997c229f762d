package boostbench

import (
	"context"
	"fmt"
)

// Candidate is a labelled processed file.
type Candidate struct {
	Label string
	Path  string
}

// Comparison holds the results of several candidates against the same clean reference, in candidate order.
type Comparison struct {
	TargetLUFS float64
	Labels     []string
	Results    []*Result
}

// Compare measures each candidate against cleanPath. Labels must be unique and non-empty.
func Compare(ctx context.Context, cleanPath string, candidates []Candidate, opts Options) (*Comparison, error) {
	applyDefaults(&opts)

	comparison := &Comparison{TargetLUFS: opts.TargetLUFS}
	seen := map[string]bool{targetKey: true}

	for _, candidate := range candidates {
		if candidate.Label == "" || seen[candidate.Label] {
			return nil, fmt.Errorf("%w: label %q must be unique and not %q", ErrInvalidOption, candidate.Label, targetKey)
		}

		seen[candidate.Label] = true

		result, err := Measure(ctx, cleanPath, candidate.Path, opts)
		if err != nil {
			return nil, err
		}

		comparison.Labels = append(comparison.Labels, candidate.Label)
		comparison.Results = append(comparison.Results, result)
	}

	return comparison, nil
}

const targetKey = "target_lufs"

// Payload returns the A/B report shape: the target plus one metrics object per label.
func (c *Comparison) Payload() map[string]any {
	payload := map[string]any{targetKey: c.TargetLUFS}

	for i, label := range c.Labels {
		payload[label] = c.Results[i].Metrics
	}

	return payload
}
