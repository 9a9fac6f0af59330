package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T, info *Info) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable: %v", err)
	}
	return L
}

func evalString(t *testing.T, L *lua.LState, expr string) string {
	t.Helper()
	if err := L.DoString("result = " + expr); err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	return L.GetGlobal("result").String()
}

func TestInjectPlatformTableFields(t *testing.T) {
	info := &Info{
		OS:       "linux",
		Arch:     ArchX64,
		ArchRaw:  "amd64",
		Platform: "ubuntu",
		Family:   FamilyDebian,
		Version:  "22.04",
	}
	L := newTestState(t, info)

	tests := []struct {
		expr string
		want string
	}{
		{"platform.os", "linux"},
		{"platform.arch", "x64"},
		{"platform.arch_raw", "amd64"},
		{"tostring(platform.is_linux)", "true"},
		{"tostring(platform.is_macos)", "false"},
		{"tostring(platform.is_x64)", "true"},
		{"tostring(platform.is_arm64)", "false"},
		{"platform.distro.id", "ubuntu"},
		{"platform.distro.family", "debian"},
		{"platform.distro.version", "22.04"},
	}

	for _, tt := range tests {
		if got := evalString(t, L, tt.expr); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestInjectPlatformTableNoDistro(t *testing.T) {
	L := newTestState(t, &Info{OS: "darwin", Arch: ArchARM64, ArchRaw: "arm64"})

	if got := evalString(t, L, "tostring(platform.distro)"); got != "nil" {
		t.Errorf("platform.distro = %q, want nil", got)
	}
}

func TestPlatformWhenHelper(t *testing.T) {
	L := newTestState(t, &Info{OS: "linux", Arch: ArchX64, ArchRaw: "amd64"})

	if got := evalString(t, L, `platform.when(platform.is_linux, "yes")`); got != "yes" {
		t.Errorf("when(true) = %q, want yes", got)
	}
	if got := evalString(t, L, `tostring(platform.when(platform.is_macos, "yes"))`); got != "nil" {
		t.Errorf("when(false) = %q, want nil", got)
	}
}

func TestPlatformTableReadOnly(t *testing.T) {
	L := newTestState(t, &Info{OS: "linux", Arch: ArchX64, ArchRaw: "amd64"})

	err := L.DoString(`platform.os = "windows"`)
	if err == nil {
		t.Fatal("expected write to platform table to fail")
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Errorf("unexpected error: %v", err)
	}
}
