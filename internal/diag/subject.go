package diag

// Subject identifies the callable (and optionally one of its parameters)
// a diagnostic is attached to. File is the declaration file path as loaded.
type Subject struct {
	File     string
	Callable string
	Param    string
}

func (s Subject) Empty() bool {
	return s.File == "" && s.Callable == "" && s.Param == ""
}

func (s Subject) String() string {
	out := s.File
	if s.Callable != "" {
		if out != "" {
			out += ":"
		}
		out += s.Callable
	}
	if s.Param != "" {
		out += "(" + s.Param + ")"
	}
	return out
}

// WithParam returns a copy of the subject narrowed to one parameter.
func (s Subject) WithParam(name string) Subject {
	s.Param = name
	return s
}
