package output_storage

import "io"

var _ io.Writer = (*OutputStorage)(nil)

// Write implements io.Writer for OutputStorage so it can be handed to
// exec.Cmd as Stdout and Stderr. It appends a copy of p since callers may
// reuse p after Write returns.
//
// A nil receiver discards p. Empty writes store nothing.
func (s *OutputStorage) Write(p []byte) (int, error) {
	if s == nil {
		return len(p), nil
	}
	if len(p) == 0 {
		return 0, nil
	}

	s.Append(append([]byte(nil), p...))

	return len(p), nil
}
