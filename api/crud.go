// ABOUTME: Uniform per-entity REST operations: list, count, get, create, update, delete, select
// ABOUTME: Every catalog resource shares this contract, addressed by its URL segment
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/harperreed/bolha/models"
)

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type countBody struct {
	Count int `json:"count"`
}

type listRequest struct {
	Search      string             `json:"search"`
	Page        int                `json:"page"`
	RowsPerPage int                `json:"rowsPerPage"`
	ColumnOrder []models.Direction `json:"columnOrder"`
}

type countRequest struct {
	Search string `json:"search"`
}

// List fetches one page of records.
func (c *Client) List(ctx context.Context, segment string, q models.ListQuery) ([]models.Record, error) {
	order := q.ColumnOrder
	if order == nil {
		order = []models.Direction{}
	}
	var resp dataEnvelope[[]models.Record]
	err := c.do(ctx, c.authed, http.MethodPost, segment+"/list", listRequest{
		Search:      q.Search,
		Page:        q.Page,
		RowsPerPage: q.RowsPerPage,
		ColumnOrder: order,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Count returns the size of the filtered set; paging and sort do not apply.
func (c *Client) Count(ctx context.Context, segment, search string) (int, error) {
	var resp dataEnvelope[countBody]
	if err := c.do(ctx, c.authed, http.MethodPost, segment+"/count", countRequest{Search: search}, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Count, nil
}

// Get fetches one record; foreign keys arrive nested as {id, ...}.
func (c *Client) Get(ctx context.Context, segment, id string) (models.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("get %s: empty id", segment)
	}
	var resp dataEnvelope[models.Record]
	if err := c.do(ctx, c.authed, http.MethodGet, segment+"/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Create posts a draft (no id). The created record is returned when the
// backend echoes it.
func (c *Client) Create(ctx context.Context, segment string, rec models.Record) (models.Record, error) {
	if rec.HasID() {
		return nil, fmt.Errorf("create %s: record already has id %s", segment, rec.ID())
	}
	var resp dataEnvelope[models.Record]
	if err := c.do(ctx, c.authed, http.MethodPost, segment, rec, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Update puts a persisted record (id required).
func (c *Client) Update(ctx context.Context, segment string, rec models.Record) (models.Record, error) {
	if !rec.HasID() {
		return nil, fmt.Errorf("update %s: record has no id", segment)
	}
	var resp dataEnvelope[models.Record]
	if err := c.do(ctx, c.authed, http.MethodPut, segment, rec, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, segment, id string) error {
	if id == "" {
		return fmt.Errorf("delete %s: empty id", segment)
	}
	return c.do(ctx, c.authed, http.MethodDelete, segment+"/"+url.PathEscape(id), nil, nil)
}

// Select fetches the reduced id+label projection used by select inputs.
func (c *Client) Select(ctx context.Context, segment, labelField string) ([]models.LookupOption, error) {
	var resp dataEnvelope[[]models.Record]
	if err := c.do(ctx, c.authed, http.MethodPost, segment+"/select", nil, &resp); err != nil {
		return nil, err
	}
	options := make([]models.LookupOption, 0, len(resp.Data))
	for _, rec := range resp.Data {
		label := rec.String(labelField)
		if label == "" {
			label = rec.String("name")
		}
		options = append(options, models.LookupOption{ID: rec.ID(), Label: label})
	}
	return options, nil
}

// MenuOptions fetches every menu option with its module name, in display order.
func (c *Client) MenuOptions(ctx context.Context) ([]models.MenuOption, error) {
	var resp dataEnvelope[[]models.MenuOption]
	if err := c.do(ctx, c.authed, http.MethodPost, "menu-options/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ResourceClient binds the uniform contract to one catalog resource.
type ResourceClient struct {
	client *Client
	res    *models.Resource
}

// Resource returns the bound client for a catalog resource.
func (c *Client) Resource(res *models.Resource) *ResourceClient {
	return &ResourceClient{client: c, res: res}
}

// Definition returns the catalog entry.
func (r *ResourceClient) Definition() *models.Resource { return r.res }

func (r *ResourceClient) List(ctx context.Context, q models.ListQuery) ([]models.Record, error) {
	return r.client.List(ctx, r.res.Segment, q)
}

func (r *ResourceClient) Count(ctx context.Context, search string) (int, error) {
	return r.client.Count(ctx, r.res.Segment, search)
}

func (r *ResourceClient) Get(ctx context.Context, id string) (models.Record, error) {
	return r.client.Get(ctx, r.res.Segment, id)
}

func (r *ResourceClient) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	return r.client.Create(ctx, r.res.Segment, rec)
}

func (r *ResourceClient) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	return r.client.Update(ctx, r.res.Segment, rec)
}

func (r *ResourceClient) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, r.res.Segment, id)
}

// Lookup fetches the select options of the resource referenced by a
// foreign-key field.
func (r *ResourceClient) Lookup(ctx context.Context, f models.Field) ([]models.LookupOption, error) {
	ref, ok := models.FindResource(f.Ref)
	if !ok {
		return nil, fmt.Errorf("field %s references unknown resource %q", f.Name, f.Ref)
	}
	return r.client.Select(ctx, ref.Segment, ref.LabelField)
}

// MenuOptions is exposed on the bound client for the permission matrix.
func (r *ResourceClient) MenuOptions(ctx context.Context) ([]models.MenuOption, error) {
	return r.client.MenuOptions(ctx)
}
