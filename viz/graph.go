// ABOUTME: GraphViz renderings of access control and catalog structure
// ABOUTME: Permission graph (profile -> module -> menu option) and foreign-key catalog graph
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/bolha/models"
)

// Source is the backend data the generators read.
type Source interface {
	Get(ctx context.Context, segment, id string) (models.Record, error)
	MenuOptions(ctx context.Context) ([]models.MenuOption, error)
	Count(ctx context.Context, segment, search string) (int, error)
}

type GraphGenerator struct {
	src Source
}

func NewGraphGenerator(src Source) *GraphGenerator {
	return &GraphGenerator{src: src}
}

// GeneratePermissionGraph fetches a profile and the menu-option catalog
// and renders the profile's grants.
func (g *GraphGenerator) GeneratePermissionGraph(ctx context.Context, profileID string) (string, error) {
	res, ok := models.FindResource("profiles")
	if !ok {
		return "", fmt.Errorf("profiles resource is not in the catalog")
	}
	profile, err := g.src.Get(ctx, res.Segment, profileID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile: %w", err)
	}
	options, err := g.src.MenuOptions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch menu options: %w", err)
	}
	return RenderPermissionGraph(ctx, profile.String("name"), options, models.DecodeGrants(profile["menuOptions"]))
}

// grantLabel lists the permissions a grant carries, "" when none.
func grantLabel(g models.PermissionGrant) string {
	if g.Disabled {
		return ""
	}
	if g.PermitAll {
		return "all"
	}
	var parts []string
	if g.PermitCreate {
		parts = append(parts, "create")
	}
	if g.PermitRestore {
		parts = append(parts, "show")
	}
	if g.PermitUpdate {
		parts = append(parts, "update")
	}
	if g.PermitDelete {
		parts = append(parts, "delete")
	}
	return strings.Join(parts, ",")
}

// RenderPermissionGraph draws one edge per granted menu option, labeled
// with its permissions. Options without grants are left out.
func RenderPermissionGraph(ctx context.Context, profileName string, options []models.MenuOption, grants []models.PermissionGrant) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(fmt.Sprintf("Permissions of %s", profileName))

	root, err := graph.CreateNodeByName("profile")
	if err != nil {
		return "", fmt.Errorf("failed to create profile node: %w", err)
	}
	root.SetLabel(profileName)
	root.SetShape("box")
	root.SetStyle("filled")
	root.SetFillColor("lightblue")

	byKey := make(map[string]models.PermissionGrant, len(grants))
	for _, gr := range grants {
		byKey[gr.MenuOptionKey] = gr
	}

	modules := make(map[string]*cgraph.Node)
	for i, opt := range options {
		label := grantLabel(byKey[optionKey(opt)])
		if label == "" {
			continue
		}

		mod, ok := modules[opt.ModuleName]
		if !ok {
			mod, err = graph.CreateNodeByName(fmt.Sprintf("module_%d", len(modules)))
			if err != nil {
				return "", fmt.Errorf("failed to create module node: %w", err)
			}
			mod.SetLabel(opt.ModuleName)
			mod.SetShape("folder")
			modules[opt.ModuleName] = mod
			if _, err := graph.CreateEdgeByName("", root, mod); err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
		}

		node, err := graph.CreateNodeByName(fmt.Sprintf("option_%d", i))
		if err != nil {
			return "", fmt.Errorf("failed to create option node: %w", err)
		}
		node.SetLabel(opt.Label)
		node.SetShape("ellipse")
		node.SetStyle("filled")
		node.SetFillColor("lightgreen")

		edge, err := graph.CreateEdgeByName(label, mod, node)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(label)
	}

	return render(ctx, gv, graph)
}

func optionKey(o models.MenuOption) string {
	if o.Key != "" {
		return o.Key
	}
	return o.ID
}

var moduleColors = map[string]string{
	models.ModuleSecurity:    "lightpink",
	models.ModuleRecruitment: "lightyellow",
	models.ModuleCommon:      "lightblue",
}

// GenerateCatalogGraph draws every catalog resource with an edge per
// foreign key, colored by module.
func GenerateCatalogGraph(ctx context.Context) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel("Resource catalog")
	graph.SetRankDir(cgraph.LRRank)

	nodes := make(map[string]*cgraph.Node)
	for _, res := range models.Resources() {
		node, err := graph.CreateNodeByName(res.Name)
		if err != nil {
			return "", fmt.Errorf("failed to create resource node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", res.Title, res.Module))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(moduleColors[res.Module])
		nodes[res.Name] = node
	}

	for _, res := range models.Resources() {
		for _, f := range res.ForeignKeys() {
			target, ok := nodes[f.Ref]
			if !ok {
				continue
			}
			edge, err := graph.CreateEdgeByName(res.Name+"."+f.Name, nodes[res.Name], target)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(f.Name)
			if !f.Required() {
				edge.SetStyle("dashed")
			}
		}
	}

	return render(ctx, gv, graph)
}

func render(ctx context.Context, gv *graphviz.Graphviz, graph *cgraph.Graph) (string, error) {
	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
