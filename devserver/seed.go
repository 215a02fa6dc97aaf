// ABOUTME: Bootstrap data for an empty dev database
// ABOUTME: Creates modules, one menu option per catalog resource, an admin group and an admin user
package devserver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/models"
)

// SeedOptions names the administrator created by Seed.
type SeedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	// SampleData adds a few countries, states and cities.
	SampleData bool
}

// SeedResult reports what Seed created.
type SeedResult struct {
	AdminID     string
	Modules     int
	MenuOptions int
	Samples     int
	Skipped     bool
}

// Seed populates an empty database. It is a no-op when the admin email
// already has credentials.
func (s *Server) Seed(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return SeedResult{}, errors.New("admin email and password are required")
	}
	if opts.AdminName == "" {
		opts.AdminName = "Administrator"
	}

	if id, err := s.creds.UserIDByEmail(ctx, opts.AdminEmail); err == nil {
		return SeedResult{AdminID: id, Skipped: true}, nil
	} else if !errors.Is(err, db.ErrRecordNotFound) {
		return SeedResult{}, fmt.Errorf("failed to check admin: %w", err)
	}

	var result SeedResult
	moduleIDs := map[string]string{}
	sequence := 0
	for _, res := range models.Resources() {
		modID, ok := moduleIDs[res.Module]
		if !ok {
			mod, err := s.records.Create(ctx, modulesResource, models.Record{"name": res.Module, "disabled": false})
			if err != nil {
				return result, fmt.Errorf("failed to create module %s: %w", res.Module, err)
			}
			modID = mod.ID()
			moduleIDs[res.Module] = modID
			result.Modules++
		}

		sequence++
		_, err := s.records.Create(ctx, menuOptionsResource, models.Record{
			"moduleId": modID,
			"sequence": fmt.Sprintf("%03d", sequence),
			"label":    res.Title,
			"route":    res.Route,
			"icon":     "",
			"key":      res.Name,
			"disabled": false,
		})
		if err != nil {
			return result, fmt.Errorf("failed to create menu option %s: %w", res.Name, err)
		}
		result.MenuOptions++
	}

	group, err := s.records.Create(ctx, "user-groups", models.Record{"name": "Administrators", "disabled": false})
	if err != nil {
		return result, fmt.Errorf("failed to create admin group: %w", err)
	}

	admin, err := s.records.Create(ctx, usersResource, models.Record{
		"userGroupId":                 group.ID(),
		"name":                        opts.AdminName,
		"email":                       opts.AdminEmail,
		"isAdmin":                     true,
		"isSuperUser":                 true,
		"isBlocked":                   false,
		"blockReasonId":               nil,
		"mustChangePasswordNextLogon": false,
		"isDisabled":                  false,
		"avatar":                      "",
	})
	if err != nil {
		return result, fmt.Errorf("failed to create admin: %w", err)
	}
	if err := s.creds.Set(ctx, admin.ID(), opts.AdminEmail, opts.AdminPassword); err != nil {
		return result, fmt.Errorf("failed to store admin credentials: %w", err)
	}
	result.AdminID = admin.ID()

	if opts.SampleData {
		n, err := s.seedSamples(ctx)
		if err != nil {
			return result, err
		}
		result.Samples = n
	}

	s.logger.Info("database seeded",
		zap.String("admin_id", result.AdminID),
		zap.Int("modules", result.Modules),
		zap.Int("menu_options", result.MenuOptions))
	return result, nil
}

var sampleStates = []struct {
	ibge, uf, name string
	cities         []string
}{
	{"35", "SP", "São Paulo", []string{"São Paulo", "Campinas", "Santos"}},
	{"33", "RJ", "Rio de Janeiro", []string{"Rio de Janeiro", "Niterói"}},
	{"31", "MG", "Minas Gerais", []string{"Belo Horizonte", "Uberlândia"}},
}

func (s *Server) seedSamples(ctx context.Context) (int, error) {
	n := 0
	if _, err := s.records.Create(ctx, "paises", models.Record{"codigoPais": "BR", "nomePais": "Brasil"}); err != nil {
		return n, fmt.Errorf("failed to create sample country: %w", err)
	}
	n++
	for _, st := range sampleStates {
		state, err := s.records.Create(ctx, "estados", models.Record{"codigoIbge": st.ibge, "uf": st.uf, "nomeEstado": st.name})
		if err != nil {
			return n, fmt.Errorf("failed to create sample state %s: %w", st.uf, err)
		}
		n++
		for _, city := range st.cities {
			if _, err := s.records.Create(ctx, "cidades", models.Record{"estadoId": state.ID(), "codigoIbge": "", "nomeCidade": city}); err != nil {
				return n, fmt.Errorf("failed to create sample city %s: %w", city, err)
			}
			n++
		}
	}
	return n, nil
}
