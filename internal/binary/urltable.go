package binary

// Source is one leaf of the URL table: the download location for a binary
// variant, plus optional sibling fields that ride along with it.
type Source struct {
	// URL is the download location for the artifact.
	URL string
	// Name overrides the installed file name for this variant
	// (e.g. "tool.exe" on windows). Empty means the controller's
	// logical name is used.
	Name string
}

// merge overlays the set fields of over onto s. The merge is shallow and
// field-by-field: a field left empty in over preserves the value from s.
func (s Source) merge(over Source) Source {
	if over.URL != "" {
		s.URL = over.URL
	}
	if over.Name != "" {
		s.Name = over.Name
	}
	return s
}

type platformArch struct {
	Platform string
	Arch     string
}

// Table holds download sources keyed by platform and architecture.
// Resolution precedence, least to most specific:
//
//	default < platform < arch < platform+arch
//
// where fields not set at a more specific level inherit from the less
// specific one. Later Add calls for the same key overwrite earlier ones;
// calls for different keys accumulate.
type Table struct {
	def            Source
	byPlatform     map[string]Source
	byArch         map[string]Source
	byPlatformArch map[platformArch]Source
}

// NewTable creates an empty URL table.
func NewTable() *Table {
	return &Table{
		byPlatform:     make(map[string]Source),
		byArch:         make(map[string]Source),
		byPlatformArch: make(map[platformArch]Source),
	}
}

// Add places src at the key implied by platform and arch. Both empty sets
// the bare default, platform alone a platform-scoped entry, arch alone an
// arch-scoped entry, and both together a fully specific entry.
func (t *Table) Add(src Source, platform, arch string) {
	switch {
	case platform == "" && arch == "":
		t.def = src
	case arch == "":
		t.byPlatform[platform] = src
	case platform == "":
		t.byArch[arch] = src
	default:
		t.byPlatformArch[platformArch{platform, arch}] = src
	}
}

// Resolve flattens the table into the single effective source for the
// given platform and architecture. It returns ErrNoSource when no level
// of the table supplies a URL for that pair.
//
// The merge is shallow: the returned Source holds plain values copied
// from table entries, so mutating it never affects the table.
func (t *Table) Resolve(platform, arch string) (Source, error) {
	out := t.def
	if s, ok := t.byPlatform[platform]; ok {
		out = out.merge(s)
	}
	if s, ok := t.byArch[arch]; ok {
		out = out.merge(s)
	}
	if s, ok := t.byPlatformArch[platformArch{platform, arch}]; ok {
		out = out.merge(s)
	}
	if out.URL == "" {
		return Source{}, ErrNoSource
	}
	return out, nil
}
