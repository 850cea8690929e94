package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `crisisdesk stores crisis updates: short reports with a title, description and location.

Core concepts:
- Crisis update: {id, title, description, location, author, created_at, timestamp}.
- id: assigned by the server, strictly increasing, never reused even after delete.
- author: the caller that created the update. Only the author may update or delete it.
- timestamp: absent until the first update, then the time of the latest update.

Rules of engagement:
1) Browse: list_crisis_updates, get_latest_crisis_update, search_by_* and get_in_* tools.
2) Report: create_crisis_update (title >= 1, description >= 10, location >= 2 characters).
3) Correct: update_crisis_update replaces all three text fields at once.
4) Retract: delete_crisis_update returns the removed update.

Errors come back as {code, message}: NOT_FOUND, INPUT_VALIDATION_FAILED,
AUTHENTICATION_FAILED or INTERNAL. Queries with no results return NOT_FOUND.

Docs:
- crisisdesk://docs/index
- crisisdesk://docs/queries
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "crisisdesk://docs/index",
		Name:        "docs_index",
		Title:       "crisisdesk docs index",
		Description: "Entry point: data model, tools and error codes.",
		Content: `# crisisdesk: Agent Docs Index

## Quick start

1. ` + "`list_crisis_updates`" + ` to see what has been reported.
2. ` + "`create_crisis_update`" + ` to report something new. You become its author.
3. ` + "`update_crisis_update`" + ` / ` + "`delete_crisis_update`" + ` on updates you authored.

## Validation

| field | minimum length (characters) |
|---|---|
| title | 1 |
| description | 10 |
| location | 2 |

Failed validation returns ` + "`INPUT_VALIDATION_FAILED`" + ` with every violated field in ` + "`details`" + `.

## Ownership

Updates and deletes by anyone other than the author return ` + "`AUTHENTICATION_FAILED`" + `.
A missing id is reported as ` + "`NOT_FOUND`" + ` before ownership is checked.

## More

- ` + "`crisisdesk://docs/queries`" + ` for predicate semantics.
`,
	},
	{
		URI:         "crisisdesk://docs/queries",
		Name:        "docs_queries",
		Title:       "Query semantics",
		Description: "How search and range tools match, order and report empty results.",
		Content: `# Query semantics

All queries scan every stored update and return matches in ascending id order.

- ` + "`search_by_location`" + `: exact, case-sensitive equality.
- ` + "`search_by_title`" + ` / ` + "`search_by_description`" + `: case-sensitive substring.
- ` + "`search_by_author`" + `: exact author match.
- ` + "`get_in_id_range`" + `: from <= id <= to.
- ` + "`get_in_timestamp_range`" + `: from <= timestamp <= to.
- ` + "`get_before`" + ` / ` + "`get_after`" + `: strict comparison against timestamp.

Timestamp queries only see updates that were modified at least once. A
never-modified update has no timestamp and matches no bound.

` + "`created_at`" + ` and ` + "`timestamp`" + ` are Unix nanoseconds, larger than 2^53. Decode them
as 64-bit integers; a float64 JSON decoder rounds them.

## Empty results

A query with no matches returns ` + "`NOT_FOUND`" + `. ` + "`details.store_empty`" + ` tells
whether nothing is stored at all or nothing matched.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
