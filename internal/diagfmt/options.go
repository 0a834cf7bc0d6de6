package diagfmt

// PathMode specifies how declaration file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows the path as recorded on the subject.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	IncludeNotes bool
}
