package version

import (
	"runtime"
	"strings"
	"testing"
)

func stamp(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = v, commit, date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
}

func TestGetInfo(t *testing.T) {
	stamp(t, "1.0.0", "abc123def456", "2026-01-01T12:00:00Z")

	info := GetInfo()

	if info.Version != "1.0.0" || info.Commit != "abc123def456" || info.Date != "2026-01-01T12:00:00Z" {
		t.Errorf("GetInfo() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("GetInfo().Platform = %v, want %v", info.Platform, want)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want []string
	}{
		{
			name: "long commit is shortened",
			info: Info{Version: "1.2.3", Commit: "abcdef1234567890", Date: "2026-10-01", GoVersion: "go1.24.6", Platform: "linux/amd64"},
			want: []string{"PsiChat 1.2.3", "(abcdef12)", "built 2026-10-01", "go1.24.6", "linux/amd64"},
		},
		{
			name: "short commit kept",
			info: Info{Version: "dev", Commit: "abc", Date: "unknown"},
			want: []string{"PsiChat dev", "(abc)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.String()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("String() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	info := Info{Version: "1.0.0", Platform: "darwin/arm64"}
	if got := info.UserAgent(); got != "psichat-cli/1.0.0 (darwin/arm64)" {
		t.Errorf("UserAgent() = %q", got)
	}
}
