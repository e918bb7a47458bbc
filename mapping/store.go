package mapping

// Member is a renamed field or method. Doc is the already-sanitized
// documentation text; the loaders map an empty desc column to Doc == ""
// and no documentation is ever the empty string.
type Member struct {
	Renamed string
	Doc     string
}

// Store holds the loaded mappings for one task invocation. It is built once
// by NewStore, after which it only serves lookups; rewrite workers read it
// concurrently without synchronization.
type Store struct {
	fields  map[string]Member
	methods map[string]Member
	params  map[string]string
}

// NewStore freezes the loader results into a read-only store. Nil maps are
// accepted for mapping files that were not present.
func NewStore(fields, methods map[string]Member, params map[string]string) *Store {
	return &Store{fields: fields, methods: methods, params: params}
}

func (s *Store) FieldRename(name string) (string, bool) {
	m, ok := s.fields[name]
	return m.Renamed, ok
}

func (s *Store) FieldDoc(name string) (string, bool) {
	m, ok := s.fields[name]
	if !ok || m.Doc == "" {
		return "", false
	}
	return m.Doc, true
}

func (s *Store) MethodRename(name string) (string, bool) {
	m, ok := s.methods[name]
	return m.Renamed, ok
}

func (s *Store) MethodDoc(name string) (string, bool) {
	m, ok := s.methods[name]
	if !ok || m.Doc == "" {
		return "", false
	}
	return m.Doc, true
}

func (s *Store) ParamRename(name string) (string, bool) {
	renamed, ok := s.params[name]
	return renamed, ok
}

// Len returns the entry counts per category, for diagnostics.
func (s *Store) Len() (fields, methods, params int) {
	return len(s.fields), len(s.methods), len(s.params)
}
