package address

// RegionProvider supplies the ISO-3166 alpha-2 region used to parse
// numbers without an international prefix. Implementations must never
// fail; when nothing better is known they return a fixed default.
type RegionProvider interface {
	CurrentRegion() string
}

// StaticRegion is a RegionProvider pinned to one region, typically the
// configured default for the installation.
type StaticRegion string

func (r StaticRegion) CurrentRegion() string {
	if r == "" {
		return "US"
	}
	return string(r)
}
