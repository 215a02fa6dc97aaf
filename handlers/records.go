// ABOUTME: Read-only MCP tool handlers over the admin REST backend
// ABOUTME: Implements list_resources, list_records, count_records, get_record and select_options
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bolha/models"
)

// Backend is the slice of the API client the tools need.
type Backend interface {
	List(ctx context.Context, segment string, q models.ListQuery) ([]models.Record, error)
	Count(ctx context.Context, segment, search string) (int, error)
	Get(ctx context.Context, segment, id string) (models.Record, error)
	Select(ctx context.Context, segment, labelField string) ([]models.LookupOption, error)
}

type RecordHandlers struct {
	backend Backend
}

func NewRecordHandlers(backend Backend) *RecordHandlers {
	return &RecordHandlers{backend: backend}
}

func findResource(name string) (*models.Resource, error) {
	if name == "" {
		return nil, fmt.Errorf("resource is required")
	}
	res, ok := models.FindResource(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", name)
	}
	return res, nil
}

type ListResourcesInput struct{}

type FieldOutput struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Ref      string `json:"ref,omitempty"`
}

type ResourceOutput struct {
	Name       string        `json:"name"`
	Title      string        `json:"title"`
	Module     string        `json:"module"`
	Segment    string        `json:"segment"`
	LabelField string        `json:"label_field"`
	Fields     []FieldOutput `json:"fields"`
}

type ListResourcesOutput struct {
	Resources []ResourceOutput `json:"resources"`
}

func (h *RecordHandlers) ListResources(_ context.Context, _ *mcp.CallToolRequest, _ ListResourcesInput) (*mcp.CallToolResult, ListResourcesOutput, error) {
	var out ListResourcesOutput
	for _, res := range models.Resources() {
		r := ResourceOutput{
			Name:       res.Name,
			Title:      res.Title,
			Module:     res.Module,
			Segment:    res.Segment,
			LabelField: res.LabelField,
		}
		for _, f := range res.Fields {
			if f.Kind == models.KindPassword {
				continue
			}
			r.Fields = append(r.Fields, FieldOutput{Name: f.Name, Label: f.Label, Required: f.Required(), Ref: f.Ref})
		}
		out.Resources = append(out.Resources, r)
	}
	return nil, out, nil
}

type ListRecordsInput struct {
	Resource    string `json:"resource" jsonschema:"Catalog name of the resource (see list_resources)"`
	Search      string `json:"search,omitempty" jsonschema:"Case-insensitive substring filter"`
	Page        int    `json:"page,omitempty" jsonschema:"Zero-based page index"`
	RowsPerPage int    `json:"rows_per_page,omitempty" jsonschema:"Page size (default 20)"`
}

type ListRecordsOutput struct {
	Rows  []map[string]any `json:"rows"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
}

func (h *RecordHandlers) ListRecords(ctx context.Context, _ *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	res, err := findResource(input.Resource)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}
	limit := input.RowsPerPage
	if limit <= 0 {
		limit = 20
	}

	q := models.NewListQuery(limit)
	q.Search = input.Search
	q.Page = input.Page
	rows, err := h.backend.List(ctx, res.Segment, q)
	if err != nil {
		return nil, ListRecordsOutput{}, fmt.Errorf("failed to list %s: %w", res.Name, err)
	}
	total, err := h.backend.Count(ctx, res.Segment, input.Search)
	if err != nil {
		return nil, ListRecordsOutput{}, fmt.Errorf("failed to count %s: %w", res.Name, err)
	}

	out := ListRecordsOutput{Rows: make([]map[string]any, 0, len(rows)), Total: total, Page: input.Page}
	for _, r := range rows {
		out.Rows = append(out.Rows, map[string]any(r))
	}
	return nil, out, nil
}

type CountRecordsInput struct {
	Resource string `json:"resource" jsonschema:"Catalog name of the resource"`
	Search   string `json:"search,omitempty" jsonschema:"Case-insensitive substring filter"`
}

type CountRecordsOutput struct {
	Count int `json:"count"`
}

func (h *RecordHandlers) CountRecords(ctx context.Context, _ *mcp.CallToolRequest, input CountRecordsInput) (*mcp.CallToolResult, CountRecordsOutput, error) {
	res, err := findResource(input.Resource)
	if err != nil {
		return nil, CountRecordsOutput{}, err
	}
	n, err := h.backend.Count(ctx, res.Segment, input.Search)
	if err != nil {
		return nil, CountRecordsOutput{}, fmt.Errorf("failed to count %s: %w", res.Name, err)
	}
	return nil, CountRecordsOutput{Count: n}, nil
}

type GetRecordInput struct {
	Resource string `json:"resource" jsonschema:"Catalog name of the resource"`
	ID       string `json:"id" jsonschema:"Record id"`
}

type GetRecordOutput struct {
	Record map[string]any `json:"record"`
}

func (h *RecordHandlers) GetRecord(ctx context.Context, _ *mcp.CallToolRequest, input GetRecordInput) (*mcp.CallToolResult, GetRecordOutput, error) {
	res, err := findResource(input.Resource)
	if err != nil {
		return nil, GetRecordOutput{}, err
	}
	if input.ID == "" {
		return nil, GetRecordOutput{}, fmt.Errorf("id is required")
	}
	rec, err := h.backend.Get(ctx, res.Segment, input.ID)
	if err != nil {
		return nil, GetRecordOutput{}, fmt.Errorf("failed to get %s %s: %w", res.Name, input.ID, err)
	}
	return nil, GetRecordOutput{Record: rec}, nil
}

type SelectOptionsInput struct {
	Resource string `json:"resource" jsonschema:"Catalog name of the resource"`
}

type SelectOptionsOutput struct {
	Options []models.LookupOption `json:"options"`
}

func (h *RecordHandlers) SelectOptions(ctx context.Context, _ *mcp.CallToolRequest, input SelectOptionsInput) (*mcp.CallToolResult, SelectOptionsOutput, error) {
	res, err := findResource(input.Resource)
	if err != nil {
		return nil, SelectOptionsOutput{}, err
	}
	options, err := h.backend.Select(ctx, res.Segment, res.LabelField)
	if err != nil {
		return nil, SelectOptionsOutput{}, fmt.Errorf("failed to load %s options: %w", res.Name, err)
	}
	if options == nil {
		options = []models.LookupOption{}
	}
	return nil, SelectOptionsOutput{Options: options}, nil
}

// Register adds every tool to server.
func (h *RecordHandlers) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_resources",
		Description: "List the administrable resources with their fields",
	}, h.ListResources)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List one page of records of a resource, optionally filtered by search text",
	}, h.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "count_records",
		Description: "Count the records of a resource matching a search",
	}, h.CountRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_record",
		Description: "Fetch one record by id; foreign keys are expanded",
	}, h.GetRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_options",
		Description: "List the id and label of every record of a resource",
	}, h.SelectOptions)
}
