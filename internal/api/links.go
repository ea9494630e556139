package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/buildings>; rel="buildings"`,
		`</api/v1/palettes>; rel="palettes"`,
		`</api/v1/tiles>; rel="tiles"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/buildings>; rel="buildings"`,
	},
	"/api/v1/buildings": {
		`</api/v1/palettes>; rel="palettes"`,
		`</api/v1/tiles>; rel="tiles"`,
	},
	"/api/v1/buildings/{id}": {
		`</api/v1/buildings>; rel="collection"`,
	},
	"/api/v1/palettes": {
		`</api/v1/buildings>; rel="buildings"`,
	},
	"/api/v1/tiles": {
		`</api/v1/buildings>; rel="buildings"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// buildingLinks are the sub-resources of one building.
var buildingLinks = []string{"panels", "layers", "config", "yield", "tiles"}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		if op.Path == "/api/v1/buildings/{id}" {
			self := ctx.URL().Path
			for _, rel := range buildingLinks {
				ctx.AppendHeader("Link", fmt.Sprintf(`<%s/%s>; rel="%s"`, self, rel, rel))
			}
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
