package main

import "testing"

func TestResolvePeriodDays(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 30},
		{"  ", 30},
		{"abc", 30},
		{"30", 30},
		{"90", 90},
		{"1", 7},    // clamp low
		{"9999", 365}, // clamp high
		{" 60 ", 60},
	}
	for _, tc := range cases {
		if got := resolvePeriodDays(tc.raw); got != tc.want {
			t.Fatalf("resolvePeriodDays(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
