package diagfmt

import (
	"path/filepath"

	"starcheck/internal/diag"
)

func displayPath(path string, mode PathMode) string {
	if path == "" {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeBasename:
		return filepath.Base(path)
	default:
		return path
	}
}

func displaySubject(s diag.Subject, mode PathMode) string {
	s.File = displayPath(s.File, mode)
	return s.String()
}
