package output

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
)

// Spec is the output location and naming scheme of a build.
type Spec struct {
	Directory     string
	Filename      string
	ChunkFilename string
	AssetFilename string
	PublicPath    string
}

// FromConfig builds a Spec with the directory resolved against the context.
func FromConfig(cfg *config.Config) Spec {
	return Spec{
		Directory:     cfg.Abs(cfg.Output.Path),
		Filename:      cfg.Output.Filename,
		ChunkFilename: cfg.Output.ChunkFilename,
		AssetFilename: cfg.Output.AssetFilename,
		PublicPath:    cfg.Output.PublicPath,
	}
}

// Validate checks that every template parses and that chunk and asset
// templates carry a hash.
func (s Spec) Validate() error {
	if s.Directory == "" {
		return errors.New(errors.ErrConfigValid, "output directory is required")
	}
	if err := ValidateTemplate(s.Filename, false); err != nil {
		return err
	}
	if s.ChunkFilename != "" {
		if err := ValidateTemplate(s.ChunkFilename, true); err != nil {
			return err
		}
	}
	if s.AssetFilename != "" {
		if err := ValidateTemplate(s.AssetFilename, true); err != nil {
			return err
		}
	}
	return nil
}

// URL returns the public URL of an emitted file name.
func (s Spec) URL(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	prefix := s.PublicPath
	if prefix == "" {
		return name
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + name
}

// VarsFor derives template variables for a source file and its contents.
func VarsFor(source string, data []byte) Vars {
	p, query, _ := strings.Cut(filepath.ToSlash(source), "?")
	base := path.Base(p)
	ext := path.Ext(base)
	v := Vars{
		Name: strings.TrimSuffix(base, ext),
		Ext:  strings.TrimPrefix(ext, "."),
		Hash: ContentHash(data),
		Path: path.Dir(p),
	}
	if query != "" {
		v.Query = "?" + query
	}
	return v
}
