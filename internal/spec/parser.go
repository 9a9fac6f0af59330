package spec

import (
	"context"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/vmarkovtsev/bin-wrapper/internal/platform"
)

// Parser parses Lua spec files with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a spec parser with the given platform detector.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile parses a Lua spec from a file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua spec from a string. The code runs in a
// sandboxed VM with the read-only platform table injected, and must leave
// a global "binwrap" table behind.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Spec, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractSpec(L)
}

// ParseError represents a spec parsing error with a friendly message.
type ParseError struct {
	Message string // user-facing message
	Detail  string // technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractSpec extracts the spec from a Lua state. It expects a global
// "binwrap" table holding a "bins" array.
func extractSpec(L *lua.LState) (*Spec, error) {
	root := L.GetGlobal("binwrap")
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'binwrap' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	result := &Spec{}
	table := root.(*lua.LTable)

	if binsVal := table.RawGetString("bins"); binsVal.Type() == lua.LTTable {
		bins, err := extractBins(binsVal.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		result.Bins = bins
	}

	if err := result.Validate(); err != nil {
		return nil, &ParseError{
			Message: "spec validation failed",
			Detail:  err.Error(),
		}
	}

	return result, nil
}

// extractBins extracts the binary definitions array from a Lua table,
// skipping nil entries produced by platform conditionals.
func extractBins(table *lua.LTable) ([]Definition, error) {
	var bins []Definition

	table.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTTable {
			return
		}
		bins = append(bins, extractDefinition(value.(*lua.LTable)))
	})

	return bins, nil
}

func extractDefinition(table *lua.LTable) Definition {
	def := Definition{}

	if v := table.RawGetString("name"); v.Type() == lua.LTString {
		def.Name = v.String()
	}
	if v := table.RawGetString("dest"); v.Type() == lua.LTString {
		def.Destination = v.String()
	}
	if v := table.RawGetString("source"); v.Type() == lua.LTString {
		def.Source = v.String()
	}
	if v := table.RawGetString("extract"); v.Type() == lua.LTBool {
		def.Extract = bool(v.(lua.LBool))
	}
	if v := table.RawGetString("strip"); v.Type() == lua.LTNumber {
		def.Strip = int(lua.LVAsNumber(v))
	}
	if v := table.RawGetString("skip_check"); v.Type() == lua.LTBool {
		def.SkipCheck = bool(v.(lua.LBool))
	}
	if v := table.RawGetString("paths"); v.Type() == lua.LTTable {
		def.Paths = extractStrings(v.(*lua.LTable))
	}
	if v := table.RawGetString("test"); v.Type() == lua.LTTable {
		def.TestArgs = extractStrings(v.(*lua.LTable))
	}
	if v := table.RawGetString("urls"); v.Type() == lua.LTTable {
		def.URLs = extractURLs(v.(*lua.LTable))
	}

	return def
}

// extractStrings extracts a string array, skipping nil values from
// platform conditionals (e.g. platform.when(platform.is_linux, "/opt")).
func extractStrings(table *lua.LTable) []string {
	var out []string
	table.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTString {
			return
		}
		out = append(out, value.String())
	})
	return out
}

// extractURLs extracts URL entries, skipping nil values from platform
// conditionals.
func extractURLs(table *lua.LTable) []URLEntry {
	var out []URLEntry
	table.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTTable {
			return
		}
		t := value.(*lua.LTable)
		entry := URLEntry{}
		if v := t.RawGetString("url"); v.Type() == lua.LTString {
			entry.URL = v.String()
		}
		if v := t.RawGetString("platform"); v.Type() == lua.LTString {
			entry.Platform = v.String()
		}
		if v := t.RawGetString("arch"); v.Type() == lua.LTString {
			entry.Arch = v.String()
		}
		if v := t.RawGetString("file_name"); v.Type() == lua.LTString {
			entry.FileName = v.String()
		}
		out = append(out, entry)
	})
	return out
}

// FormatError formats a ParseError for user display. In verbose mode the
// raw Lua error is shown; otherwise the traceback is trimmed off.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
