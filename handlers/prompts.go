// ABOUTME: MCP prompt handlers for reusable administration workflows
// ABOUTME: Provides access-review and record-summary prompts built from backend data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bolha/models"
)

// PromptSource is what the prompts read from the backend.
type PromptSource interface {
	Get(ctx context.Context, segment, id string) (models.Record, error)
	MenuOptions(ctx context.Context) ([]models.MenuOption, error)
}

type PromptHandlers struct {
	src PromptSource
}

func NewPromptHandlers(src PromptSource) *PromptHandlers {
	return &PromptHandlers{src: src}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "access-review":
		return h.getAccessReviewPrompt(ctx, arguments)
	case "record-summary":
		return h.getRecordSummaryPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getAccessReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	profileID, ok := args["profile_id"]
	if !ok || profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}
	res, _ := models.FindResource("profiles")

	profile, err := h.src.Get(ctx, res.Segment, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	options, err := h.src.MenuOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu options: %w", err)
	}

	labels := make(map[string]models.MenuOption, len(options))
	for _, o := range options {
		labels[optionKeyOf(o)] = o
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the access granted by this profile:\n\n")
	promptText.WriteString(fmt.Sprintf("Profile: %s\n", profile.String("name")))
	if profile["disabled"] == true {
		promptText.WriteString("Status: disabled\n")
	}

	grants := models.DecodeGrants(profile["menuOptions"])
	promptText.WriteString(fmt.Sprintf("\nGrants (%d):\n", len(grants)))
	for _, g := range grants {
		opt, known := labels[g.MenuOptionKey]
		label := g.MenuOptionKey
		if known {
			label = fmt.Sprintf("%s / %s", opt.ModuleName, opt.Label)
		}
		promptText.WriteString(fmt.Sprintf("- %s: all=%t create=%t show=%t update=%t delete=%t disabled=%t\n",
			label, g.PermitAll, g.PermitCreate, g.PermitRestore, g.PermitUpdate, g.PermitDelete, g.Disabled))
	}

	promptText.WriteString("\nPlease analyze these permissions and provide:")
	promptText.WriteString("\n1. A summary of what a user with this profile can do")
	promptText.WriteString("\n2. Grants that look broader than the profile name suggests")
	promptText.WriteString("\n3. Grants that reference unknown or disabled menu options")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Access review for profile: %s", profile.String("name")),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getRecordSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	res, err := findResource(args["resource"])
	if err != nil {
		return nil, err
	}
	id := args["id"]
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	rec, err := h.src.Get(ctx, res.Segment, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", res.Name, err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please summarize this %s record:\n\n", strings.ToLower(res.Title)))
	for _, f := range res.Fields {
		if f.Kind == models.KindPassword || f.Kind == models.KindGrants {
			continue
		}
		value := rec.Display(f.Name)
		if f.Kind == models.KindForeignKey {
			if ref, ok := models.FindResource(f.Ref); ok {
				if label := rec.Display(f.Name + "." + ref.LabelField); label != "" {
					value = label
				}
			}
		}
		if value == "" {
			continue
		}
		promptText.WriteString(fmt.Sprintf("%s: %s\n", f.Label, value))
	}
	promptText.WriteString("\nPoint out missing or inconsistent information.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary of %s %s", res.Name, id),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func optionKeyOf(o models.MenuOption) string {
	if o.Key != "" {
		return o.Key
	}
	return o.ID
}

func (h *PromptHandlers) Register(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "access-review",
		Description: "Review the permissions granted by a profile",
		Arguments: []*mcp.PromptArgument{
			{Name: "profile_id", Description: "Profile id", Required: true},
		},
	}, h.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "record-summary",
		Description: "Summarize one record of any resource",
		Arguments: []*mcp.PromptArgument{
			{Name: "resource", Description: "Catalog name of the resource", Required: true},
			{Name: "id", Description: "Record id", Required: true},
		},
	}, h.GetPrompt)
}
