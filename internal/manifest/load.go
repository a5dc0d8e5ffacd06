package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Error codes for manifest loading.
const (
	ErrCodeRead        = "E101"
	ErrCodeParse       = "E102"
	ErrCodeInvalid     = "E103"
	ErrCodeUnsupported = "E104"
)

// LoadError reports a manifest that could not be loaded.
type LoadError struct {
	Path    string
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a manifest, choosing the decoder by file extension.
func Load(path string) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".cue":
		return LoadCUE(path)
	default:
		return nil, &LoadError{
			Path:    path,
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported manifest extension %q (want .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}
}

// LoadAll loads every path in order and stops at the first error.
func LoadAll(paths ...string) ([]*Manifest, error) {
	manifests := make([]*Manifest, 0, len(paths))
	for _, p := range paths {
		m, err := Load(p)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// LoadYAML reads a YAML manifest. Unknown fields are rejected.
func LoadYAML(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeRead, Message: err.Error()}
	}
	return ParseYAML(path, data)
}

// ParseYAML decodes a YAML manifest from memory. path is used in errors.
func ParseYAML(path string, data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeParse, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}
	m.Path = path

	if _, err := m.Build(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadCUE reads a CUE manifest and validates it against the embedded schema.
func LoadCUE(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeRead, Message: err.Error()}
	}
	return ParseCUE(path, data)
}

// ParseCUE decodes a CUE manifest from memory. path is used in errors.
func ParseCUE(path string, data []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(path, ErrCodeParse, err)
	}

	v = schema.LookupPath(cue.ParsePath("#Manifest")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(path, ErrCodeInvalid, err)
	}

	var m Manifest
	if err := v.Decode(&m); err != nil {
		return nil, cueLoadError(path, ErrCodeParse, err)
	}
	m.Path = path

	if _, err := m.Build(); err != nil {
		return nil, err
	}
	return &m, nil
}

// cueLoadError keeps the first CUE error and its position.
func cueLoadError(path, code string, err error) error {
	le := &LoadError{Path: path, Code: code, Message: err.Error()}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	le.Message = errs[0].Error()
	if positions := cueerrors.Positions(errs[0]); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
