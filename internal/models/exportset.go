package models

// Entry is one (output path, payload) pair of an ExportSet.
type Entry struct {
	Path    string
	Payload Payload
}

// ExportSet maps output file paths to payloads.
//
// Putting an existing path replaces its payload (last writer wins) while
// keeping the original position, so iteration order stays deterministic.
type ExportSet struct {
	entries []Entry
	index   map[string]int
}

// NewExportSet returns an empty set.
func NewExportSet() *ExportSet {
	return &ExportSet{index: make(map[string]int)}
}

// Put records payload at path.
func (s *ExportSet) Put(path string, p Payload) {
	if i, ok := s.index[path]; ok {
		s.entries[i].Payload = p
		return
	}
	s.index[path] = len(s.entries)
	s.entries = append(s.entries, Entry{Path: path, Payload: p})
}

// Get returns the payload recorded at path.
func (s *ExportSet) Get(path string) (Payload, bool) {
	i, ok := s.index[path]
	if !ok {
		return Missing, false
	}
	return s.entries[i].Payload, true
}

// Len returns the number of distinct paths.
func (s *ExportSet) Len() int { return len(s.entries) }

// Entries returns the entries in insertion order.
func (s *ExportSet) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
