package steps

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/beevik/etree"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/arthur-debert/bundl/pkg/output"
	"github.com/arthur-debert/bundl/pkg/rules"
)

const defaultAssetName = "[hash].[ext]"

// urlLoader inlines small files as data URLs and hands larger ones to its
// fallback step. Without a limit every file is inlined.
func urlLoader(ctx context.Context, r *Runner, opts rules.Options, a *Artifact) error {
	if limit, ok := opts.GetInt("limit"); ok && int64(len(a.Contents)) > limit {
		return r.Apply(ctx, fallbackStep(opts), a)
	}

	mimetype := opts.GetString("mimetype", "")
	if mimetype == "" {
		mimetype = mimeType(a.Ext())
	}
	uri := "data:" + mimetype + ";base64," + base64.StdEncoding.EncodeToString(a.Contents)
	return exportString(a, uri)
}

// fallbackStep returns url-loader's fallback. A fallback without options
// inherits url-loader's own options.
func fallbackStep(opts rules.Options) rules.Step {
	step, ok := opts.GetStep("fallback")
	if !ok {
		step = rules.Step{Loader: FileLoader}
	}
	if len(step.Options) == 0 {
		inherited := rules.Options{}
		for k, v := range opts {
			switch k {
			case "limit", "fallback", "mimetype":
			default:
				inherited[k] = v
			}
		}
		step.Options = inherited
	}
	return step
}

// fileLoader emits the file under its name template and replaces the
// module with the public URL of the emitted file.
func fileLoader(_ context.Context, r *Runner, opts rules.Options, a *Artifact) error {
	if a.Ext() == "svg" {
		if err := checkSVG(a.Contents); err != nil {
			return err
		}
	}

	name, err := output.Render(r.assetName(opts), output.VarsFor(a.Request(), a.Contents))
	if err != nil {
		return err
	}
	name = strings.SplitN(name, "?", 2)[0]

	if opts.GetBool("emitFile", true) {
		if r.Emitter == nil {
			return fmt.Errorf("no emitter configured for %s", name)
		}
		if err := r.Emitter.Emit(name, a.Contents); err != nil {
			return err
		}
	}

	spec := r.Output
	if pp, ok := opts["publicPath"].(string); ok {
		spec.PublicPath = pp
	}
	return exportString(a, spec.URL(name))
}

func (r *Runner) assetName(opts rules.Options) string {
	if name := opts.GetString("name", ""); name != "" {
		return name
	}
	if r.Output.AssetFilename != "" {
		return r.Output.AssetFilename
	}
	return defaultAssetName
}

func checkSVG(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("malformed svg: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return fmt.Errorf("malformed svg: root element is not <svg>")
	}
	return nil
}

func exportString(a *Artifact, value string) error {
	quoted, err := json.Marshal(value)
	if err != nil {
		return err
	}
	a.Contents = []byte("export default " + string(quoted) + ";\n")
	a.Loader = api.LoaderJS
	a.URL = value
	return nil
}

func mimeType(ext string) string {
	if t := mime.TypeByExtension("." + ext); t != "" {
		return strings.SplitN(t, ";", 2)[0]
	}
	return "application/octet-stream"
}
