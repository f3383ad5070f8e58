package appointment

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, true},
		{StatusScheduled, StatusScheduled, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCancelled, false},
		{Status("bogus"), StatusScheduled, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
