package mcp

import (
	"fmt"

	"github.com/rpggio/crisisdesk/internal/domain/crisis"
)

type CreateParams struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Numeric arguments are pointers. 0 is a valid id and timestamp, and an
// absent argument must not read as one.

type IDParams struct {
	ID *uint64 `json:"id"`
}

type UpdateParams struct {
	ID          *uint64 `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
}

type LocationParams struct {
	Location string `json:"location"`
}

type SubstringParams struct {
	Query string `json:"query"`
}

type AuthorParams struct {
	Author string `json:"author"`
}

type RangeParams struct {
	From *uint64 `json:"from"`
	To   *uint64 `json:"to"`
}

type TimestampParams struct {
	Timestamp *uint64 `json:"timestamp"`
}

// UpdateListResponse wraps query results so tool output is always an object.
type UpdateListResponse struct {
	Updates []crisis.Update `json:"updates"`
	Count   int             `json:"count"`
}

type PingResponse struct {
	Status string `json:"status"`
	Caller string `json:"caller,omitempty"`
}

func listResponse(updates []crisis.Update, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return UpdateListResponse{Updates: updates, Count: len(updates)}, nil
}

func single(rec *crisis.Update, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return *rec, nil
}

func (p CreateParams) payload() crisis.Payload {
	return crisis.Payload{Title: p.Title, Description: p.Description, Location: p.Location}
}

func (p UpdateParams) payload() crisis.Payload {
	return crisis.Payload{Title: p.Title, Description: p.Description, Location: p.Location}
}

// required returns *v, or ErrInvalidParams naming the missing argument.
func required(name string, v *uint64) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing required argument %q", ErrInvalidParams, name)
	}
	return *v, nil
}

func (p RangeParams) bounds() (uint64, uint64, error) {
	from, err := required("from", p.From)
	if err != nil {
		return 0, 0, err
	}
	to, err := required("to", p.To)
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}
