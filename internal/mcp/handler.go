package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/metrics"
)

// CrisisService defines the crisis update operations exposed over MCP.
type CrisisService interface {
	Create(ctx context.Context, caller string, payload crisis.Payload) (*crisis.Update, error)
	Get(ctx context.Context, id uint64) (*crisis.Update, error)
	Update(ctx context.Context, caller string, id uint64, payload crisis.Payload) (*crisis.Update, error)
	Delete(ctx context.Context, caller string, id uint64) (*crisis.Update, error)
	ListAll(ctx context.Context) ([]crisis.Update, error)
	Latest(ctx context.Context) (*crisis.Update, error)
	SearchByLocation(ctx context.Context, loc string) ([]crisis.Update, error)
	SearchByTitle(ctx context.Context, substr string) ([]crisis.Update, error)
	SearchByDescription(ctx context.Context, substr string) ([]crisis.Update, error)
	SearchByAuthor(ctx context.Context, author string) ([]crisis.Update, error)
	InTimestampRange(ctx context.Context, lo, hi uint64) ([]crisis.Update, error)
	Before(ctx context.Context, ts uint64) ([]crisis.Update, error)
	After(ctx context.Context, ts uint64) ([]crisis.Update, error)
	InIDRange(ctx context.Context, lo, hi uint64) ([]crisis.Update, error)
}

// Handler dispatches MCP commands.
type Handler struct {
	updates CrisisService
	logger  *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(updates CrisisService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{updates: updates, logger: logger}
}

// Handle dispatches a method call on behalf of caller and records its outcome.
// Domain errors are returned as *APIError.
func (h *Handler) Handle(ctx context.Context, caller, method string, params json.RawMessage) (any, error) {
	if _, ok := toolsByName[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	start := time.Now()
	result, err := h.dispatch(ctx, caller, method, params)
	code := outcome(err)
	metrics.ObserveOperation(method, code, time.Since(start))

	if err != nil {
		apiErr := MapError(err)
		if apiErr.Code == CodeInternal {
			h.logger.Error("operation failed", "method", method, "caller", caller, "error", err)
		}
		return nil, apiErr
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, caller, method string, params json.RawMessage) (any, error) {
	switch method {
	case "ping":
		return PingResponse{Status: "ok", Caller: caller}, nil
	case "create_crisis_update":
		var req CreateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return single(h.updates.Create(ctx, caller, req.payload()))
	case "get_crisis_update":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id, err := required("id", req.ID)
		if err != nil {
			return nil, err
		}
		return single(h.updates.Get(ctx, id))
	case "update_crisis_update":
		var req UpdateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id, err := required("id", req.ID)
		if err != nil {
			return nil, err
		}
		return single(h.updates.Update(ctx, caller, id, req.payload()))
	case "delete_crisis_update":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id, err := required("id", req.ID)
		if err != nil {
			return nil, err
		}
		return single(h.updates.Delete(ctx, caller, id))
	case "list_crisis_updates":
		return listResponse(h.updates.ListAll(ctx))
	case "get_latest_crisis_update":
		return single(h.updates.Latest(ctx))
	case "search_by_location":
		var req LocationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return listResponse(h.updates.SearchByLocation(ctx, req.Location))
	case "search_by_title":
		var req SubstringParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return listResponse(h.updates.SearchByTitle(ctx, req.Query))
	case "search_by_description":
		var req SubstringParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return listResponse(h.updates.SearchByDescription(ctx, req.Query))
	case "search_by_author":
		var req AuthorParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return listResponse(h.updates.SearchByAuthor(ctx, req.Author))
	case "get_in_timestamp_range":
		var req RangeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		from, to, err := req.bounds()
		if err != nil {
			return nil, err
		}
		return listResponse(h.updates.InTimestampRange(ctx, from, to))
	case "get_before":
		var req TimestampParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ts, err := required("timestamp", req.Timestamp)
		if err != nil {
			return nil, err
		}
		return listResponse(h.updates.Before(ctx, ts))
	case "get_after":
		var req TimestampParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ts, err := required("timestamp", req.Timestamp)
		if err != nil {
			return nil, err
		}
		return listResponse(h.updates.After(ctx, ts))
	case "get_in_id_range":
		var req RangeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		from, to, err := req.bounds()
		if err != nil {
			return nil, err
		}
		return listResponse(h.updates.InIDRange(ctx, from, to))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	return MapError(err).Code
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
