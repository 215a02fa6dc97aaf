// ABOUTME: Menu-option catalog and per-user navigation menu endpoints
// ABOUTME: The user menu is derived from the grants of every profile linked to the user
package devserver

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/bolha/models"
)

func (s *Server) allMenuOptions(c *gin.Context) {
	opts, err := s.menuOptions(c.Request.Context())
	if err != nil {
		s.internalError(c, "menu-options", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": opts})
}

// menuOptions returns every enabled menu option with its module name,
// ordered by sequence.
func (s *Server) menuOptions(ctx context.Context) ([]models.MenuOption, error) {
	modules, err := s.records.Find(ctx, modulesResource, "")
	if err != nil {
		return nil, err
	}
	moduleNames := make(map[string]string, len(modules))
	for _, m := range modules {
		moduleNames[m.ID()] = m.String("name")
	}

	rows, err := s.records.Find(ctx, menuOptionsResource, "")
	if err != nil {
		return nil, err
	}
	out := make([]models.MenuOption, 0, len(rows))
	for _, r := range rows {
		if r["disabled"] == true {
			continue
		}
		out = append(out, models.MenuOption{
			ID:         r.ID(),
			Key:        r.String("key"),
			Label:      r.String("label"),
			Route:      r.String("route"),
			ModuleName: moduleNames[r.String("moduleId")],
			Sequence:   r.String("sequence"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *Server) userMenu(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)

	user, err := s.records.Get(ctx, usersResource, userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	opts, err := s.menuOptions(ctx)
	if err != nil {
		s.internalError(c, "user-menu", err)
		return
	}

	if user["isAdmin"] != true && user["isSuperUser"] != true {
		granted, err := s.grantedKeys(ctx, userID)
		if err != nil {
			s.internalError(c, "user-menu", err)
			return
		}
		visible := opts[:0]
		for _, o := range opts {
			if granted[optionKey(o)] {
				visible = append(visible, o)
			}
		}
		opts = visible
	}

	c.JSON(http.StatusOK, gin.H{"data": buildMenu(opts)})
}

// grantedKeys collects the menu-option keys a user may see through the
// grants of their profiles.
func (s *Server) grantedKeys(ctx context.Context, userID string) (map[string]bool, error) {
	links, err := s.records.FindBy(ctx, usersProfiles, "userId", userID)
	if err != nil {
		return nil, err
	}
	granted := map[string]bool{}
	for _, link := range links {
		profile, err := s.records.Get(ctx, profilesResource, link.String("profileId"))
		if err != nil || profile["disabled"] == true {
			continue
		}
		grants, _ := profile["menuOptions"].([]any)
		for _, g := range grants {
			m, ok := g.(map[string]any)
			if !ok || m["disabled"] == true {
				continue
			}
			if m["permitAll"] == true || m["permitRestore"] == true {
				granted[models.Scalar(m["menuOptionKey"])] = true
			}
		}
	}
	return granted, nil
}

func optionKey(o models.MenuOption) string {
	if o.Key != "" {
		return o.Key
	}
	return o.ID
}

// buildMenu groups options by module, keeping the order in which modules
// first appear.
func buildMenu(opts []models.MenuOption) []models.MenuEntry {
	var menu []models.MenuEntry
	index := map[string]int{}
	for _, o := range opts {
		i, ok := index[o.ModuleName]
		if !ok {
			i = len(menu)
			index[o.ModuleName] = i
			menu = append(menu, models.MenuEntry{ID: o.ModuleName, Text: o.ModuleName})
		}
		menu[i].SubMenuOptions = append(menu[i].SubMenuOptions, models.MenuEntry{
			ID:    o.ID,
			Text:  o.Label,
			Route: o.Route,
		})
	}
	if menu == nil {
		menu = []models.MenuEntry{}
	}
	return menu
}
