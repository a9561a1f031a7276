// Package permission decodes the compact per-component permission code.
// The code is a 3-character string of '0'/'1' flags: read, write, mask.
package permission

// Permissions are the decoded flags.
type Permissions struct {
	CanRead  bool `json:"canRead"`
	CanWrite bool `json:"canWrite"`
	CanMask  bool `json:"canMask"`
}

// Evaluation is what the renderer consumes: visibility and editability
// derived from the decoded flags. It is recomputed on every render, never
// cached, since the component definition can change between builder saves.
type Evaluation struct {
	Visible     bool        `json:"visible"`
	Disabled    bool        `json:"disabled"`
	Permissions Permissions `json:"permissions"`
}

// Parse decodes a permission code. It is total: absent or malformed codes
// (length < 2) default to fully open. A missing third character means no
// masking.
func Parse(code string) Permissions {
	if len(code) < 2 {
		return Permissions{CanRead: true, CanWrite: true}
	}
	p := Permissions{
		CanRead:  code[0] == '1',
		CanWrite: code[1] == '1',
	}
	if len(code) >= 3 {
		p.CanMask = code[2] == '1'
	}
	return p
}

// Evaluate parses a code and derives render flags. A component that is not
// visible must be omitted from the render tree entirely: it occupies no
// grid slot and registers no binding.
func Evaluate(code string) Evaluation {
	p := Parse(code)
	return Evaluation{
		Visible:     p.CanRead,
		Disabled:    !p.CanWrite,
		Permissions: p,
	}
}
