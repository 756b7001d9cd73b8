package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

// ManifestEntry is the serialized description of one route.
type ManifestEntry struct {
	Pattern  string `json:"pattern" yaml:"pattern"`
	Group    string `json:"group,omitempty" yaml:"group,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Binding  string `json:"binding" yaml:"binding"`
	Param    string `json:"param" yaml:"param"`
	Params   string `json:"params,omitempty" yaml:"params,omitempty"`
	Receiver string `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Methods  string `json:"methods" yaml:"methods"`
}

// Manifest describes every registered route.
func (r *Router) Manifest() []ManifestEntry {
	routes := r.Routes()
	out := make([]ManifestEntry, len(routes))
	for i, rt := range routes {
		e := ManifestEntry{
			Pattern:  rt.Pattern,
			Group:    rt.Group,
			Name:     rt.Name,
			Summary:  rt.Summary,
			Binding:  rt.Binding.String(),
			Param:    rt.ParamType.String(),
			Receiver: rt.Receiver,
			Methods:  "*",
		}
		if rt.ParamsType != nil {
			e.Params = rt.ParamsType.String()
		}
		if rt.Binding.NeedsBody() {
			e.Methods = allowHeader
		}
		out[i] = e
	}
	return out
}

// WriteRoutes writes the route manifest to w as indented JSON ("json") or
// YAML ("yaml").
func (r *Router) WriteRoutes(w io.Writer, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Manifest())
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.Manifest()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown manifest format %q", format)
	}
}

// ManifestHandler returns an http.Handler serving the route manifest as JSON,
// or as YAML when the request asks for it with ?format=yaml. Mount it on the
// host's mux; it is not a webhook route.
func (r *Router) ManifestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		format := "json"
		contentType := "application/json"
		if QueryValue(req, "format") == "yaml" {
			format = "yaml"
			contentType = "application/yaml"
		}
		w.Header().Set("Content-Type", contentType)
		//nolint:errcheck,gosec // best-effort after headers
		r.WriteRoutes(w, format)
	})
}
