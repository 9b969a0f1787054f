package aws

import "testing"

func TestEffectiveRegion(t *testing.T) {
	cases := []struct {
		configured, flag, want string
	}{
		{"", "", FallbackRegion},
		{"eu-west-1", "", "eu-west-1"},
		{"", "ap-southeast-2", "ap-southeast-2"},
		{"eu-west-1", "ap-southeast-2", "ap-southeast-2"},
	}
	for _, tc := range cases {
		if got := EffectiveRegion(tc.configured, tc.flag); got != tc.want {
			t.Errorf("EffectiveRegion(%q, %q) = %q, want %q", tc.configured, tc.flag, got, tc.want)
		}
	}
}
