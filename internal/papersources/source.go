// Package papersources provides the HTTP plumbing shared by remote publication sources.
//
// A source client (see package cris) builds requests, executes them through
// HTTPClient and decodes the JSON payload. Page-oriented sources describe a
// request window with PageParams and report the server's pagination totals
// with PageMeta.
//
// Example usage:
//
//	client := cris.New(cris.Config{BaseURL: cris.DefaultBaseURL})
//	page, err := client.ListPublications(ctx, cris.ListQuery{
//		StartYear:  "2020",
//		EndYear:    "2023",
//		PageParams: papersources.PageParamsFor(1, cris.DefaultPageSize),
//	})
package papersources

// PageParams identifies one page of a paginated query.
type PageParams struct {
	// Page is the 1-indexed page number.
	Page int

	// Skip is the number of records preceding this page.
	Skip int

	// Limit is the page size.
	Limit int
}

// PageParamsFor returns the window for page (1-indexed) at the given page size.
func PageParamsFor(page, pageSize int) PageParams {
	if page < 1 {
		page = 1
	}
	return PageParams{
		Page:  page,
		Skip:  (page - 1) * pageSize,
		Limit: pageSize,
	}
}

// PageMeta carries the totals a paginated source reports with every page.
type PageMeta struct {
	// PageCount is the number of pages in the full result set.
	PageCount int `json:"pageCount"`

	// TotalCount is the number of records in the full result set.
	TotalCount int `json:"totalCount"`
}
