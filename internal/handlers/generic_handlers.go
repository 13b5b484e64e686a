// Package handlers contains the HTTP handlers of the JSON API and the page views.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// Model is a persisted resource with explicit save hooks.
type Model interface {
	GetID() int64
	BeforeSave()
	Validate() error
}

// Store is the persistence contract behind a Resource.
type Store[T Model] interface {
	Create(ctx context.Context, item T) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context, q *database.ListQuery) ([]T, int, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// ResourceOptions configures a Resource.
type ResourceOptions[T Model] struct {
	// Name keys the list in GET responses, e.g. "tours".
	Name   string
	Schema *database.Schema
	// New returns an empty item to decode a create request into.
	New func() T
	// BeforeCreate fills fields that come from the request rather than the body.
	BeforeCreate func(r *http.Request, item T) error
	// Expand loads related data shown by GetOne.
	Expand func(ctx context.Context, item T) error
	// NestedParam, when present in the route, filters lists by NestedField.
	NestedParam string
	NestedField string
}

// Resource serves the CRUD endpoints of one resource type.
type Resource[T Model] struct {
	store Store[T]
	opts  ResourceOptions[T]
}

// NewResource creates a Resource backed by store.
func NewResource[T Model](store Store[T], opts ResourceOptions[T]) *Resource[T] {
	return &Resource[T]{store: store, opts: opts}
}

// Create decodes, normalizes, validates and stores a new item.
func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	item := h.opts.New()
	if err := utils.DecodeJSON(r, item); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if h.opts.BeforeCreate != nil {
		if err := h.opts.BeforeCreate(r, item); err != nil {
			utils.RespondError(w, r, err)
			return
		}
	}

	item.BeforeSave()
	if err := item.Validate(); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	created, err := h.store.Create(r.Context(), item)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusCreated, created)
}

// GetOne returns the item named by the id URL parameter.
func (h *Resource[T]) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, constants.ParamID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if h.opts.Expand != nil {
		if err := h.opts.Expand(r.Context(), item); err != nil {
			utils.RespondError(w, r, err)
			return
		}
	}

	utils.JSON(w, http.StatusOK, item)
}

// GetAll lists items filtered, sorted, projected and paginated by the query string.
func (h *Resource[T]) GetAll(w http.ResponseWriter, r *http.Request) {
	q, err := database.ParseListQuery(r.URL.Query(), h.opts.Schema)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if h.opts.NestedParam != "" {
		if raw := chi.URLParam(r, h.opts.NestedParam); raw != "" {
			parentID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				utils.RespondError(w, r, utils.NewBadRequestError("Invalid id: "+raw))
				return
			}
			if err := q.AddFilter(h.opts.NestedField, parentID); err != nil {
				utils.RespondError(w, r, err)
				return
			}
		}
	}

	items, total, err := h.store.List(r.Context(), q)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if err := q.CheckPage(total); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	var data interface{} = items
	if len(q.Fields) > 0 {
		data, err = project(items, q.Fields)
		if err != nil {
			utils.RespondError(w, r, err)
			return
		}
	}

	utils.Paginated(w, http.StatusOK, map[string]interface{}{
		"results":   len(items),
		h.opts.Name: data,
	}, q.Page, q.Limit, total)
}

// UpdateOne merges the JSON body over the stored item and saves it.
func (h *Resource[T]) UpdateOne(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, constants.ParamID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if err := utils.DecodeJSON(r, item); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	if item.GetID() != id {
		utils.RespondError(w, r, utils.NewValidationError(constants.ParamID, "The id cannot be changed"))
		return
	}

	updated, err := h.Save(r.Context(), item)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, updated)
}

// Save runs the save hooks on item and stores it.
func (h *Resource[T]) Save(ctx context.Context, item T) (T, error) {
	item.BeforeSave()
	if err := item.Validate(); err != nil {
		var zero T
		return zero, err
	}
	return h.store.Update(ctx, item)
}

// DeleteOne removes the item named by the id URL parameter.
func (h *Resource[T]) DeleteOne(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, constants.ParamID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.NoContent(w)
}

// parseID reads a numeric URL parameter.
func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.NewBadRequestError("Invalid id: " + raw)
	}
	return id, nil
}

// project keeps only the requested fields of each item. The id is always kept.
func project[T any](items []T, fields []string) ([]map[string]json.RawMessage, error) {
	keep := make(map[string]bool, len(fields)+1)
	keep[constants.ParamID] = true
	for _, f := range fields {
		keep[f] = true
	}

	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to encode item: %w", err)
		}
		var all map[string]json.RawMessage
		if err := json.Unmarshal(raw, &all); err != nil {
			return nil, fmt.Errorf("failed to project item: %w", err)
		}
		for k := range all {
			if !keep[k] {
				delete(all, k)
			}
		}
		out = append(out, all)
	}
	return out, nil
}
