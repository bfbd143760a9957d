package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Limits bounds the page size a client may request.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits applies DefaultLimit and MaxLimit.
var DefaultLimits = Limits{Default: DefaultLimit, Max: MaxLimit}

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page         int
	PageSize     int
	Cursor       string
	Search       string
	IncludeTotal bool
}

// FromContext extracts pagination parameters from the echo context. page
// below 1 becomes 1, a missing or non-positive page_size becomes the
// default, and a page_size above the maximum is capped.
func FromContext(c echo.Context, lim Limits) Params {
	if lim.Default <= 0 {
		lim.Default = DefaultLimit
	}
	if lim.Max < lim.Default {
		lim.Max = lim.Default
	}

	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size <= 0 {
		size, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if size <= 0 {
		size = lim.Default
	}
	if size > lim.Max {
		size = lim.Max
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	includeTotal, _ := strconv.ParseBool(c.QueryParam("include_total"))

	return Params{
		Page:         page,
		PageSize:     size,
		Cursor:       strings.TrimSpace(c.QueryParam("cursor")),
		Search:       strings.TrimSpace(c.QueryParam("search")),
		IncludeTotal: includeTotal,
	}
}

// Offset returns the number of rows skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int64) bool {
	return int64(p.Offset()+p.PageSize) < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Page > 1
}

// CursorResponse is the body of an infinite-scroll page. NextCursor is null
// once the stream is exhausted.
type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor interface{} `json:"nextCursor"`
	Total      *int64      `json:"total,omitempty"`
}

// PageResponse is the body of a numbered page.
type PageResponse struct {
	Data     interface{} `json:"data"`
	Total    *int64      `json:"total,omitempty"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	HasMore  *bool       `json:"has_more,omitempty"`
	Links    []Link      `json:"links,omitempty"`
}

// NewPageResponse builds a page body. total may be nil when the client did
// not ask for it; HasMore and Links are then left out.
func NewPageResponse(data interface{}, total *int64, p Params, basePath string) *PageResponse {
	resp := &PageResponse{
		Data:     data,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	if total != nil {
		more := p.HasNext(*total)
		resp.HasMore = &more
		resp.Links = p.Links(basePath, *total)
	}
	return resp
}

// Link is a navigation link for a numbered page.
type Link struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

// Links generates self/next/previous links. The search term is carried over
// so every link addresses the same result set.
func (p Params) Links(basePath string, total int64) []Link {
	link := func(page int) string {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(p.PageSize))
		if p.Search != "" {
			q.Set("search", p.Search)
		}
		if p.IncludeTotal {
			q.Set("include_total", "true")
		}
		return fmt.Sprintf("%s?%s", basePath, q.Encode())
	}

	links := []Link{{Relation: "self", URL: link(p.Page)}}
	if p.HasNext(total) {
		links = append(links, Link{Relation: "next", URL: link(p.Page + 1)})
	}
	if p.HasPrevious() {
		links = append(links, Link{Relation: "previous", URL: link(p.Page - 1)})
	}
	return links
}
