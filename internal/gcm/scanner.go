package gcm

import "fmt"

// Scanner retrieves the fields of a dataset one time step at a time.
type Scanner struct {
	steps []step
	pos   int
	field *Field
	err   error
}

// Select creates a scanner over the time steps whose date satisfies keep.
// A nil keep selects every time step.
func (ds *Dataset) Select(keep func(Date) bool) *Scanner {
	s := &Scanner{}
	for _, st := range ds.steps {
		if keep == nil || keep(st.date) {
			s.steps = append(s.steps, st)
		}
	}
	return s
}

// Len returns the number of selected time steps.
func (s *Scanner) Len() int {
	return len(s.steps)
}

// Scan reads the field of the next selected time step.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.steps) {
		return false
	}
	st := s.steps[s.pos]
	if st.src.nc == nil {
		s.err = fmt.Errorf("%s: dataset is closed", st.src.path)
		return false
	}
	v, err := st.src.vg.GetSlice(st.index, st.index+1)
	if err != nil {
		s.err = fmt.Errorf("%s: time step %d: %w", st.src.path, st.index, err)
		return false
	}
	vals, rows, cols, err := plane(v)
	if err != nil {
		s.err = fmt.Errorf("%s: time step %d: %w", st.src.path, st.index, err)
		return false
	}
	if rows != st.src.rows || cols != st.src.cols {
		s.err = fmt.Errorf("%w: %s: time step %d is %dx%d, want %dx%d",
			ErrGridMismatch, st.src.path, st.index, rows, cols, st.src.rows, st.src.cols)
		return false
	}
	st.src.pack.apply(vals)

	s.field = &Field{Date: st.date, Rows: rows, Cols: cols, Values: vals}
	s.pos++
	return true
}

// Field returns the field that has been read by the last Scan() operation.
// The function transfers ownership of the field to the caller and the
// subsequent calls to this function without prior invocation of Scan() will
// return nil.
func (s *Scanner) Field() *Field {
	f := s.field
	s.field = nil
	return f
}

// Err returns the first error encountered while scanning.
func (s *Scanner) Err() error {
	return s.err
}
