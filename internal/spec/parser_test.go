package spec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmarkovtsev/bin-wrapper/internal/platform"
)

func linuxX64() platform.Detector {
	return &platform.Static{Info: platform.Info{
		OS:       "linux",
		Arch:     platform.ArchX64,
		Platform: "linux",
		Family:   platform.FamilyDebian,
		Version:  "12",
	}}
}

func parse(t *testing.T, detector platform.Detector, code string) *Spec {
	t.Helper()
	s, err := NewParser(detector).ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return s
}

func TestParseSimpleSpec(t *testing.T) {
	s := parse(t, linuxX64(), `
binwrap = {
	bins = {
		{
			name = "gifsicle",
			dest = "vendor",
			urls = {
				{ url = "https://example.com/gifsicle-linux", platform = "linux" },
				{ url = "https://example.com/gifsicle.exe", platform = "windows", file_name = "gifsicle.exe" },
			},
			test = { "--version" },
		},
	},
}
`)

	if len(s.Bins) != 1 {
		t.Fatalf("bins = %d, want 1", len(s.Bins))
	}
	def := s.Bins[0]
	if def.Name != "gifsicle" || def.Destination != "vendor" {
		t.Errorf("definition = %+v", def)
	}
	if len(def.URLs) != 2 {
		t.Fatalf("urls = %d, want 2", len(def.URLs))
	}
	if def.URLs[1].FileName != "gifsicle.exe" || def.URLs[1].Platform != "windows" {
		t.Errorf("second url entry = %+v", def.URLs[1])
	}
	if len(def.TestArgs) != 1 || def.TestArgs[0] != "--version" {
		t.Errorf("test args = %v", def.TestArgs)
	}
}

func TestParsePlatformConditionals(t *testing.T) {
	code := `
binwrap = {
	bins = {
		{
			name = "tool",
			paths = {
				platform.when(platform.is_linux, "/opt/tool/bin"),
				platform.when(platform.is_windows, "C:\\tool"),
			},
			urls = {
				platform.when(platform.is_x64, { url = "https://example.com/tool-x64" }),
				platform.when(platform.is_arm64, { url = "https://example.com/tool-arm64" }),
			},
		},
	},
}
`
	s := parse(t, linuxX64(), code)

	def := s.Bins[0]
	if len(def.Paths) != 1 || def.Paths[0] != "/opt/tool/bin" {
		t.Errorf("paths = %v, want only the linux entry", def.Paths)
	}
	if len(def.URLs) != 1 || def.URLs[0].URL != "https://example.com/tool-x64" {
		t.Errorf("urls = %+v, want only the x64 entry", def.URLs)
	}
}

func TestParseSourceAndExtract(t *testing.T) {
	s := parse(t, linuxX64(), `
binwrap = {
	bins = {
		{
			name = "jpegtran",
			source = "https://example.com/jpegsrc.tar.gz",
			extract = true,
			strip = 1,
			skip_check = true,
		},
	},
}
`)

	def := s.Bins[0]
	if def.Source != "https://example.com/jpegsrc.tar.gz" {
		t.Errorf("source = %q", def.Source)
	}
	if !def.Extract || def.Strip != 1 || !def.SkipCheck {
		t.Errorf("definition = %+v", def)
	}
}

func TestParseUsesDistro(t *testing.T) {
	s := parse(t, linuxX64(), `
local url = "https://example.com/tool-generic"
if platform.distro and platform.distro.family == "debian" then
	url = "https://example.com/tool-deb"
end
binwrap = { bins = { { name = "tool", urls = { { url = url } } } } }
`)

	if got := s.Bins[0].URLs[0].URL; got != "https://example.com/tool-deb" {
		t.Errorf("url = %q, want the debian variant", got)
	}
}

func TestParseMissingRootTable(t *testing.T) {
	_, err := NewParser(linuxX64()).ParseString(context.Background(), `local x = 1`)
	if err == nil {
		t.Fatal("expected missing table error")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if !strings.Contains(perr.Message, "binwrap") {
		t.Errorf("message = %q", perr.Message)
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := NewParser(linuxX64()).ParseString(context.Background(), `binwrap = {`)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
}

func TestParseValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			"missing name",
			`binwrap = { bins = { { dest = "vendor" } } }`,
			"name is required",
		},
		{
			"path separator in name",
			`binwrap = { bins = { { name = "a/b" } } }`,
			"path separators",
		},
		{
			"bad url scheme",
			`binwrap = { bins = { { name = "tool", urls = { { url = "ftp://example.com/t" } } } } }`,
			"http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(linuxX64()).ParseString(context.Background(), tt.code)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParseSandboxBlocksOS(t *testing.T) {
	_, err := NewParser(linuxX64()).ParseString(context.Background(), `
binwrap = { bins = {} }
os.execute("true")
`)
	if err == nil {
		t.Fatal("expected sandboxed call to fail")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binwrap.lua")
	code := `binwrap = { bins = { { name = "tool", urls = { { url = "https://example.com/tool" } } } } }`
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewParser(linuxX64()).ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(s.Bins) != 1 || s.Bins[0].Name != "tool" {
		t.Errorf("spec = %+v", s)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := NewParser(linuxX64()).ParseFile(context.Background(), filepath.Join(t.TempDir(), "absent.lua"))
	if err == nil {
		t.Fatal("expected read error")
	}
}

func TestFormatErrorTrimsTraceback(t *testing.T) {
	err := &ParseError{
		Message: "Lua syntax error",
		Detail:  "something broke\nstack traceback:\n\t[G]: in ?",
	}

	short := FormatError(err, false)
	if strings.Contains(short, "stack traceback") {
		t.Errorf("short format kept the traceback: %q", short)
	}

	long := FormatError(err, true)
	if !strings.Contains(long, "stack traceback") {
		t.Errorf("verbose format lost the traceback: %q", long)
	}
}
