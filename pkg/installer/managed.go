package installer

// ManagedSet records every target path the reconciler wrote or verified
// during the current run. Orphan detection checks the contents of the
// centralized home directories against it. The set lives in memory only and
// is discarded when the run ends.
type ManagedSet struct {
	files map[string]bool
	dirs  map[string]bool
}

func NewManagedSet() *ManagedSet {
	return &ManagedSet{
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
	}
}

// AddFile records a managed file or symlink.
func (m *ManagedSet) AddFile(path string) {
	m.files[path] = true
}

// AddDir records a managed directory, such as a merged bundle root.
func (m *ManagedSet) AddDir(path string) {
	m.dirs[path] = true
}

func (m *ManagedSet) ContainsFile(path string) bool {
	return m.files[path]
}

func (m *ManagedSet) ContainsDir(path string) bool {
	return m.dirs[path]
}
