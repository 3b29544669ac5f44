package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	cases := []struct {
		now    time.Time
		expect time.Time
	}{
		{
			now:    time.Date(2023, time.July, 31, 17, 30, 0, 0, Location),
			expect: time.Date(2023, time.July, 31, 0, 0, 0, 0, Location),
		},
		{
			now:    time.Date(2023, time.November, 1, 0, 0, 0, 0, Location),
			expect: time.Date(2023, time.November, 1, 0, 0, 0, 0, Location),
		},
		{
			now:    time.Date(2023, time.December, 31, 23, 59, 59, 0, Location),
			expect: time.Date(2023, time.December, 31, 0, 0, 0, 0, Location),
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, StartOfDay(test.now))
	}
}
