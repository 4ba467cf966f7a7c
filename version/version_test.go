package version

import "testing"

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.2.0", Commit: "abc1234"}, "1.2.0-abc1234"},
		{Info{Version: "1.2.0", Commit: "abc1234", Dirty: true}, "1.2.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestGetPrefersLinkedCommit(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	Version, Commit = "1.3.0", "0123456789abcdef"
	info := Get()
	if info.Version != "1.3.0" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.Commit != "0123456" {
		t.Errorf("Commit = %q, want truncated linked commit", info.Commit)
	}
}

func TestMetadata(t *testing.T) {
	md := Info{Version: "1.3.0"}.Metadata()
	if md["version"] != "1.3.0" {
		t.Errorf("metadata = %v", md)
	}
	if _, ok := md["commit"]; ok {
		t.Error("commit must be omitted when unknown")
	}
	if md := (Info{Version: "1.3.0", Commit: "abc"}).Metadata(); md["commit"] != "abc" {
		t.Errorf("metadata = %v", md)
	}
}
