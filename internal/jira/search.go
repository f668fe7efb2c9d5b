package jira

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMaxSearchResults caps how many issues a fetch-all search may
// pull across pages.
const DefaultMaxSearchResults = 1000

const searchPageSize = 50

// SearchIssues runs a JQL search and yields issues lazily, one page at a
// time. The sequence is finite and single-use. maxItems <= 0 uses
// DefaultMaxSearchResults. Iteration stops at the first error; the error
// is yielded with a zero Issue.
func (c *Client) SearchIssues(ctx context.Context, jql string, fields []string, maxItems int) iter.Seq2[Issue, error] {
	if maxItems <= 0 {
		maxItems = DefaultMaxSearchResults
	}
	return func(yield func(Issue, error) bool) {
		token := ""
		seen := 0
		for {
			page, err := c.searchPage(ctx, jql, fields, token)
			if err != nil {
				yield(Issue{}, err)
				return
			}
			for _, issue := range page.Issues {
				if seen >= maxItems {
					return
				}
				if !yield(issue, nil) {
					return
				}
				seen++
			}
			if page.NextPageToken == "" || len(page.Issues) == 0 {
				return
			}
			token = page.NextPageToken
		}
	}
}

// SearchIssuesPage fetches a single page of search results.
func (c *Client) SearchIssuesPage(ctx context.Context, jql string, fields []string, nextPageToken string, maxResults int) (*SearchPage, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, &ValidationError{
			Message: "jql is required",
			Fields:  map[string]string{"jql": "must not be empty"},
		}
	}
	query := url.Values{}
	query.Set("jql", jql)
	if maxResults <= 0 {
		maxResults = searchPageSize
	}
	query.Set("maxResults", strconv.Itoa(maxResults))
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}
	if nextPageToken != "" {
		query.Set("nextPageToken", nextPageToken)
	}

	var page SearchPage
	if err := c.Do(ctx, http.MethodGet, "/rest/api/3/search/jql", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) searchPage(ctx context.Context, jql string, fields []string, token string) (*SearchPage, error) {
	return c.SearchIssuesPage(ctx, jql, fields, token, searchPageSize)
}

// fetchPaged walks an offset-paginated Agile endpoint until isLast or
// the cap, collecting all values.
func fetchPaged[T any](ctx context.Context, c *Client, path string, query url.Values, maxItems int) ([]T, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxSearchResults
	}
	if query == nil {
		query = url.Values{}
	}

	var all []T
	startAt := 0
	for {
		query.Set("startAt", strconv.Itoa(startAt))
		query.Set("maxResults", strconv.Itoa(searchPageSize))

		var page pagedValues[T]
		if err := c.Do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Values...)
		if len(all) >= maxItems {
			return all[:maxItems], nil
		}
		if page.IsLast || len(page.Values) == 0 {
			return all, nil
		}
		startAt += len(page.Values)
	}
}
