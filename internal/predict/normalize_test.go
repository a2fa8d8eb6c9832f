package predict

import (
	"testing"

	"github.com/apetrov/finsight/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.SpendingRecord
		want    []Entry
	}{
		{
			name: "expense kept with sign flipped",
			records: []domain.SpendingRecord{
				{Date: "2024-03-15", Category: "food", Amount: -42.5},
			},
			want: []Entry{{Year: 2024, Month: 3, Category: "food", Amount: 42.5}},
		},
		{
			name: "income dropped",
			records: []domain.SpendingRecord{
				{Date: "2024-03-15", Category: "food", Amount: 1200.0},
			},
			want: []Entry{},
		},
		{
			name: "missing category defaults to other",
			records: []domain.SpendingRecord{
				{Date: "2024-03-15", Amount: -10.0},
			},
			want: []Entry{{Year: 2024, Month: 3, Category: "other", Amount: 10}},
		},
		{
			name: "numeric string amount coerced",
			records: []domain.SpendingRecord{
				{Date: "2024-01-01", Category: "travel", Amount: "-99.90"},
			},
			want: []Entry{{Year: 2024, Month: 1, Category: "travel", Amount: 99.9}},
		},
		{
			name: "non-numeric amount dropped",
			records: []domain.SpendingRecord{
				{Date: "2024-01-01", Category: "food", Amount: "abc"},
			},
			want: []Entry{},
		},
		{
			name: "unparsable date dropped",
			records: []domain.SpendingRecord{
				{Date: "not a date", Category: "food", Amount: -5.0},
			},
			want: []Entry{},
		},
		{
			name: "timestamp date accepted",
			records: []domain.SpendingRecord{
				{Date: "2023-12-31T10:30:00", Category: "shopping", Amount: -1.0},
			},
			want: []Entry{{Year: 2023, Month: 12, Category: "shopping", Amount: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.records)
			if len(got) != len(tt.want) {
				t.Fatalf("Normalize returned %d entries, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalize_MalformedRecordIdempotent(t *testing.T) {
	// A record with a non-numeric amount must contribute nothing, no matter
	// how many times it is submitted.
	bad := domain.SpendingRecord{Date: "2024-02-01", Category: "food", Amount: "oops"}

	once := Normalize([]domain.SpendingRecord{bad})
	twice := Normalize([]domain.SpendingRecord{bad, bad})

	if len(once) != 0 || len(twice) != 0 {
		t.Errorf("malformed record contributed entries: once=%d twice=%d", len(once), len(twice))
	}
}
