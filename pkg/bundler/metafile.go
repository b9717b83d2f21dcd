package bundler

import (
	"encoding/json"
	"path"
	"sort"
	"strings"
)

// Metafile is the subset of esbuild's metafile bundl reads.
type Metafile struct {
	Outputs map[string]OutputMeta `json:"outputs"`
}

// OutputMeta describes one file esbuild wrote.
type OutputMeta struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportMeta `json:"imports"`
	CSSBundle  string       `json:"cssBundle"`
	Bytes      int          `json:"bytes"`
}

// ImportMeta is an import edge between outputs.
type ImportMeta struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

func parseMetafile(raw string) (*Metafile, error) {
	var m Metafile
	if raw == "" {
		return &Metafile{Outputs: map[string]OutputMeta{}}, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// entryOutputs returns the output paths of entry bundles and their CSS
// bundles, in output path order.
func (m *Metafile) entryOutputs() (scripts, styles []string) {
	keys := make([]string, 0, len(m.Outputs))
	for k, out := range m.Outputs {
		if out.EntryPoint != "" && outputKind(k) == "js" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		scripts = append(scripts, k)
		if css := m.Outputs[k].CSSBundle; css != "" {
			styles = append(styles, css)
		}
	}
	return scripts, styles
}

func outputKind(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".js", ".mjs", ".cjs":
		return "js"
	case ".css":
		return "css"
	case ".map":
		return "map"
	}
	return "asset"
}

func sortOutputs(outs []OutputFile) {
	sort.Slice(outs, func(i, j int) bool { return outs[i].Name < outs[j].Name })
}
