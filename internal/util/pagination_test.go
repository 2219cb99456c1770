package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		limit     string
		offset    string
		want      Page
		badFields []string
	}{
		{"defaults", "", "", Page{Limit: 20, Offset: 0}, nil},
		{"explicit", "5", "10", Page{Limit: 5, Offset: 10}, nil},
		{"max limit", "50", "", Page{Limit: 50}, nil},
		{"limit too big", "51", "", Page{Limit: 20}, []string{"limit"}},
		{"limit zero", "0", "", Page{Limit: 20}, []string{"limit"}},
		{"negative offset", "", "-1", Page{Limit: 20}, []string{"offset"}},
		{"not numbers", "x", "y", Page{Limit: 20}, []string{"limit", "offset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, errs := ParsePage(tt.limit, tt.offset, 20, 0)
			assert.Equal(t, tt.want, got)
			if tt.badFields == nil {
				assert.Nil(t, errs)
				return
			}
			for _, f := range tt.badFields {
				assert.Contains(t, errs, f)
			}
		})
	}
}
