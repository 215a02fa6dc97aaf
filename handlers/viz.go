// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool for permission and catalog graphs
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bolha/viz"
)

type VizHandlers struct {
	src viz.Source
}

func NewVizHandlers(src viz.Source) *VizHandlers {
	return &VizHandlers{src: src}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: permissions or catalog"`
	EntityID string `json:"entity_id,omitempty" jsonschema:"Profile id (required for permissions)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	var dot string
	var err error

	switch input.Type {
	case "permissions":
		if input.EntityID == "" {
			return nil, GenerateGraphOutput{}, fmt.Errorf("entity_id required for permissions graph")
		}
		dot, err = viz.NewGraphGenerator(h.src).GeneratePermissionGraph(ctx, input.EntityID)

	case "catalog":
		dot, err = viz.GenerateCatalogGraph(ctx)

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: permissions, catalog)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

func (h *VizHandlers) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render a GraphViz DOT graph of a profile's permissions or of the resource catalog",
	}, h.GenerateGraph)
}
