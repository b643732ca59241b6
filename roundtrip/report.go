package roundtrip

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// JSON renders the report for machine consumers (CI, dashboards).
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %v", err)
	}
	return data, nil
}

// Summary renders a one-line human summary.
func (r *Report) Summary() string {
	if r.Clean() {
		return fmt.Sprintf("%s via %s: OK", r.Entity, r.Dialect)
	}
	return fmt.Sprintf("%s via %s: %d mismatch(es)", r.Entity, r.Dialect, len(r.Mismatches))
}

// Detail renders the full mismatch list, one line each.
func (r *Report) Detail() string {
	var b strings.Builder
	b.WriteString(r.Summary())
	for _, m := range r.Mismatches {
		b.WriteString("\n  - " + m.String())
	}
	return b.String()
}
