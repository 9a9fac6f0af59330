// Package platform provides runtime platform and architecture detection
// for selecting the correct binary download variant.
//
// Architecture identifiers are normalized into the small, explicit bucket
// set that URL tables are keyed by (see NormalizeArch). Linux distribution
// details are detected with gopsutil and degrade gracefully when
// unavailable. Detection is expressed as an injectable Detector so that
// URL resolution stays pure and testable across platform branches.
package platform

import "context"

// Architecture buckets used as URL table keys.
//
// This is deliberately a closed legacy enumeration, not a general GOARCH
// map: x64 and the ARM variants are recognized explicitly and every other
// architecture falls into the x86 bucket.
const (
	ArchX64   = "x64"
	ArchARM   = "arm"
	ArchARM64 = "arm64"
	ArchX86   = "x86"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains detected platform information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // normalized bucket: "x64", "arm", "arm64", "x86"
	ArchRaw  string // original GOARCH (e.g. "amd64", "riscv64")
	Platform string // distro ID (Linux only, e.g. "ubuntu")
	Family   string // canonical distro family (e.g. "debian")
	Version  string // distro version (Linux only, e.g. "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// Static is a Detector that always reports a fixed platform. It backs
// tests and lets callers pin resolution to a platform other than the
// running one.
type Static struct {
	Info Info
}

// Detect returns a copy of the fixed platform information.
func (s *Static) Detect(ctx context.Context) (*Info, error) {
	info := s.Info
	return &info, nil
}
