package indexer_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cpindex/internal/indexer"
)

func TestParseIDSpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		want     []int64
		warnings int
		err      error
	}{
		{name: "list", spec: "5,8,12", want: []int64{5, 8, 12}},
		{name: "ranges", spec: "1-3, 15,20-21", want: []int64{1, 2, 3, 15, 20, 21}},
		{name: "reversed range", spec: "4-2", want: []int64{2, 3, 4}},
		{name: "duplicates", spec: "3,1-3,3", want: []int64{1, 2, 3}},
		{name: "bad tokens skipped", spec: "2,abc,1-2-3,0,-1", want: []int64{2}, warnings: 4},
		{name: "empty tokens", spec: " ,7,, ", want: []int64{7}},
		{name: "range too wide", spec: "1-200000,9", want: []int64{9}, warnings: 1},
		{name: "nothing valid", spec: "x,y", warnings: 2, err: indexer.ErrNoValidIDs},
		{name: "empty", spec: "", err: indexer.ErrNoValidIDs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, warnings, err := indexer.ParseIDSpec(tt.spec)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ParseIDSpec(%q) error = %v, want %v", tt.spec, err, tt.err)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if len(warnings) != tt.warnings {
				t.Errorf("warnings = %q, want %d", warnings, tt.warnings)
			}
		})
	}
}
