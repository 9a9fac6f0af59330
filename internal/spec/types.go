// Package spec provides Lua spec-file parsing for bin-wrapper.
//
// A spec file declares the binaries a project provisions: for each one a
// logical name, a destination, download URLs keyed by platform and
// architecture, and optionally a buildable source archive. Specs execute
// in a sandboxed Lua VM with a read-only platform table injected, so URL
// lists can be written with platform conditionals.
package spec

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vmarkovtsev/bin-wrapper/internal/binary"
)

// URLEntry is one download variant of a binary.
type URLEntry struct {
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
	Arch     string `json:"arch,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Definition describes one binary declared in a spec file.
type Definition struct {
	Name        string     `json:"name"`
	Destination string     `json:"dest,omitempty"`
	Paths       []string   `json:"paths,omitempty"`
	URLs        []URLEntry `json:"urls,omitempty"`
	Source      string     `json:"source,omitempty"`
	TestArgs    []string   `json:"test,omitempty"`
	Extract     bool       `json:"extract,omitempty"`
	Strip       int        `json:"strip,omitempty"`
	SkipCheck   bool       `json:"skip_check,omitempty"`
}

// Spec is the complete parsed content of a spec file.
type Spec struct {
	Bins []Definition `json:"bins"`
}

// Validate performs basic validation on a parsed spec.
func (s *Spec) Validate() error {
	for i, def := range s.Bins {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("bins[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single binary definition.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("binary name is required")
	}
	if strings.ContainsAny(d.Name, "/\\") {
		return fmt.Errorf("binary name %q must not contain path separators", d.Name)
	}
	if d.Strip < 0 {
		return fmt.Errorf("strip must not be negative")
	}
	for i, entry := range d.URLs {
		if err := validateURL(entry.URL); err != nil {
			return fmt.Errorf("urls[%d]: %w", i, err)
		}
	}
	if d.Source != "" {
		if err := validateURL(d.Source); err != nil {
			return fmt.Errorf("source: %w", err)
		}
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	return nil
}

// Controller builds a ready-to-use binary controller from the definition.
// Additional options are applied after the definition's own settings, so
// callers can override them.
func (d *Definition) Controller(opts ...binary.Option) *binary.Controller {
	base := []binary.Option{
		binary.WithDestination(d.Destination),
		binary.WithSkipCheck(d.SkipCheck),
	}
	if d.Extract {
		base = append(base, binary.WithExtract(d.Strip))
	}
	ctl := binary.New(d.Name, append(base, opts...)...)

	for _, dir := range d.Paths {
		ctl.AddPath(dir)
	}
	for _, entry := range d.URLs {
		ctl.AddVariant(binary.Source{
			URL:  entry.URL,
			Name: entry.FileName,
		}, entry.Platform, entry.Arch)
	}
	if d.Source != "" {
		ctl.AddSource(d.Source)
	}
	return ctl
}
