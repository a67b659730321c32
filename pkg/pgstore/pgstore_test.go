package pgstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/friendlyid/pkg/pgstore"
)

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"hello--", "hello--"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pgstore.EscapeLike(tt.in))
		})
	}
}
