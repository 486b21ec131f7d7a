package relift

// Module is the record of one completed load. It exposes where the executed
// text lives on disk and the text itself, so tools inspect what actually
// ran rather than trusting the original file. The executed text and
// Source() can never diverge: both come from the same buffer the executor
// received.
type Module struct {
	// Name is the module name the load was requested under.
	Name string

	// SourcePath is the absolute path of the original source file.
	SourcePath string

	// CachePath is the on-disk location of the transformed source. Empty
	// for untransformed loads, or when the cache was unwritable and the
	// load proceeded from memory.
	CachePath string

	// Transformed reports whether the source went through the transformer.
	Transformed bool

	source []byte
}

// Source returns the executed source text verbatim.
func (m *Module) Source() []byte {
	// Copy so callers cannot mutate the record of what ran.
	return append([]byte(nil), m.source...)
}
