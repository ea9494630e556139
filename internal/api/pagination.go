package api

import (
	"fmt"
	"strings"
)

// PageInput selects a window of a collection. A zero limit returns
// everything from offset on.
type PageInput struct {
	Offset int `query:"offset" minimum:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"0" maximum:"1000" doc:"Page size, 0 for all"`
}

// page returns the window of items selected by in.
func page[T any](items []T, in PageInput) []T {
	start := min(in.Offset, len(items))
	end := len(items)
	if in.Limit > 0 {
		end = min(start+in.Limit, len(items))
	}
	return items[start:end]
}

// paginationLinks returns the RFC 8288 first/prev/next/last links of a
// paged collection, joined into one header value. Unpaged requests get none.
func paginationLinks(basePath string, in PageInput, total int) string {
	if in.Limit <= 0 {
		return ""
	}
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, basePath, offset, in.Limit, rel)
	}

	links := []string{link(0, "first")}
	if in.Offset > 0 {
		links = append(links, link(max(in.Offset-in.Limit, 0), "prev"))
	}
	if in.Offset+in.Limit < total {
		links = append(links, link(in.Offset+in.Limit, "next"))
	}
	last := max((total-1)/in.Limit*in.Limit, 0)
	links = append(links, link(last, "last"))
	return strings.Join(links, ", ")
}
