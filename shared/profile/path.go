package profile

import (
	"fmt"
	"regexp"
	"strings"
)

var safeSegment = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Path identifies a stored profile as provider/model/file.json.
type Path struct {
	Provider string
	Model    string
	File     string
}

func (p Path) String() string {
	return p.Provider + "/" + p.Model + "/" + p.File
}

// ModelKey is the provider/model prefix of the path.
func (p Path) ModelKey() string {
	return p.Provider + "/" + p.Model
}

// SafeSegment reports whether s is usable as one path component.
func SafeSegment(s string) bool {
	return s != "." && s != ".." && safeSegment.MatchString(s)
}

// ParsePath validates a relative profile path. It must be exactly three safe
// segments ending in a .json file, with no traversal of any kind.
func ParsePath(rel string) (Path, error) {
	rel = strings.TrimSpace(rel)
	switch {
	case rel == "":
		return Path{}, fmt.Errorf("%w: empty", ErrInvalidPath)
	case strings.HasPrefix(rel, "/"):
		return Path{}, fmt.Errorf("%w: absolute path %q", ErrInvalidPath, rel)
	case strings.Contains(rel, `\`):
		return Path{}, fmt.Errorf("%w: backslash in %q", ErrInvalidPath, rel)
	case strings.Contains(rel, ".."):
		return Path{}, fmt.Errorf("%w: traversal in %q", ErrInvalidPath, rel)
	}

	parts := strings.Split(rel, "/")
	if len(parts) != 3 {
		return Path{}, fmt.Errorf("%w: want provider/model/file.json, got %q", ErrInvalidPath, rel)
	}
	for _, seg := range parts {
		if !SafeSegment(seg) {
			return Path{}, fmt.Errorf("%w: unsafe segment %q", ErrInvalidPath, seg)
		}
	}
	if !strings.HasSuffix(parts[2], ".json") {
		return Path{}, fmt.Errorf("%w: %q is not a .json file", ErrInvalidPath, parts[2])
	}
	return Path{Provider: parts[0], Model: parts[1], File: parts[2]}, nil
}
