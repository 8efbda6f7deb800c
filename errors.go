package gibbon

import "errors"

// Error categories. Failures wrap one of these sentinels so callers
// can classify them with errors.Is.
var (
	// ErrConfiguration marks an invalid parameter value. Detected
	// before any computation starts.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrStructure marks inconsistent mesh data, such as a face or
	// adjacency entry referencing a vertex out of bounds. Detected
	// before any output is produced; inputs are never left partially
	// modified.
	ErrStructure = errors.New("inconsistent mesh structure")

	// ErrGeometry marks a malformed boundary curve. Surfaced from the
	// triangulation collaborator verbatim; no repair is attempted.
	ErrGeometry = errors.New("malformed geometry")
)
