package buildinfo

import "testing"

func TestInfoString(t *testing.T) {
	cases := []struct {
		in   Info
		want string
	}{
		{Info{Version: "v1.0.0"}, "v1.0.0"},
		{Info{Version: "v1.0.0", Commit: "0123456789abcdef"}, "v1.0.0 (0123456789ab)"},
		{Info{Version: "dev", Commit: "abc", Date: "2025-08-30T12:00:00Z"}, "dev (abc, 2025-08-30T12:00:00Z)"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestGetKeepsStampedValues(t *testing.T) {
	prevV, prevC := Version, Commit
	defer func() { Version, Commit = prevV, prevC }()

	Version, Commit = " v2.3.4 ", "feedface"
	info := Get()
	if info.Version != "v2.3.4" || info.Commit != "feedface" || info.GoVersion == "" {
		t.Fatalf("unexpected info: %+v", info)
	}
}
