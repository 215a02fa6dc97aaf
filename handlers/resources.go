// ABOUTME: MCP resource handlers exposing the catalog and records via bolha:// URIs
// ABOUTME: bolha://catalog, bolha://<resource> (first page) and bolha://<resource>/<id>
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bolha/models"
)

const uriScheme = "bolha://"

type ResourceHandlers struct {
	records *RecordHandlers
}

func NewResourceHandlers(records *RecordHandlers) *ResourceHandlers {
	return &ResourceHandlers{records: records}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	switch {
	case parts[0] == "catalog":
		_, out, err := h.records.ListResources(ctx, nil, ListResourcesInput{})
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, out.Resources)

	case len(parts) == 1:
		_, out, err := h.records.ListRecords(ctx, nil, ListRecordsInput{Resource: parts[0], RowsPerPage: models.DefaultRowsPerPage})
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, out)

	default:
		_, out, err := h.records.GetRecord(ctx, nil, GetRecordInput{Resource: parts[0], ID: parts[1]})
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, out.Record)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// Register adds the catalog resource and the record templates to server.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "catalog",
		Name:        "catalog",
		Description: "Administrable resources and their fields",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "{resource}",
		Name:        "records",
		Description: "First page of records of a resource",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "{resource}/{id}",
		Name:        "record",
		Description: "One record by id",
		MIMEType:    "application/json",
	}, h.ReadResource)
}
