// ABOUTME: Resource catalog describing every administrative CRUD screen
// ABOUTME: Maps each entity to its API segment, client route, columns, fields and lookups
package models

import (
	"sort"
	"strings"
)

// FieldKind selects how a field is edited and coerced.
type FieldKind int

const (
	KindText FieldKind = iota
	KindTextArea
	KindPassword
	KindNumber
	KindBool
	KindDate
	KindForeignKey
	KindGrants
)

// Field is one editable business field of a resource.
type Field struct {
	Name   string
	Label  string
	Kind   FieldKind
	Rules  string // validator tags, e.g. "required,max=60"
	Ref    string // catalog name of the referenced resource (KindForeignKey)
	MaxLen int
}

// Required reports whether the field carries a required rule.
func (f Field) Required() bool {
	for _, r := range strings.Split(f.Rules, ",") {
		if r == "required" {
			return true
		}
	}
	return false
}

// Column is one list-table column. Field may be a dotted path into an
// expanded foreign key, e.g. "estadoId.uf".
type Column struct {
	Field string
	Label string
	Width int
}

// Resource describes one entity screen pair (list + form).
type Resource struct {
	Name       string // catalog key
	Segment    string // REST URL segment
	Route      string // client route of the list screen
	Title      string
	Module     string // navigation group
	LabelField string // field projected by /select
	Columns    []Column
	Fields     []Field
}

// NewRoute returns the create route of the resource.
func (r *Resource) NewRoute() string { return r.Route + "/new" }

// EditRoute returns the update route for the given id.
func (r *Resource) EditRoute(id string) string { return r.Route + "/edit/" + id }

// Field returns the named field.
func (r *Resource) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ForeignKeys returns the fields that reference other resources.
func (r *Resource) ForeignKeys() []Field {
	var out []Field
	for _, f := range r.Fields {
		if f.Kind == KindForeignKey {
			out = append(out, f)
		}
	}
	return out
}

// HasGrants reports whether the resource carries a permission matrix.
func (r *Resource) HasGrants() bool {
	for _, f := range r.Fields {
		if f.Kind == KindGrants {
			return true
		}
	}
	return false
}

const (
	ModuleSecurity    = "Security"
	ModuleRecruitment = "Recruitment"
	ModuleCommon      = "Common"
)

const required = "required"

var catalog = []*Resource{
	{
		Name: "block-reasons", Segment: "block-reasons", Route: "/block-reasons",
		Title: "Block reasons", Module: ModuleSecurity, LabelField: "description",
		Columns: []Column{{Field: "code", Label: "Code", Width: 10}, {Field: "description", Label: "Description", Width: 50}},
		Fields: []Field{
			{Name: "code", Label: "Code", Rules: required, MaxLen: 3},
			{Name: "description", Label: "Description", Rules: required, MaxLen: 60},
			{Name: "instructionsToSolve", Label: "Instructions to solve", Kind: KindTextArea},
			{Name: "isSolvedByPasswordReset", Label: "Solved by password reset", Kind: KindBool},
		},
	},
	{
		Name: "user-groups", Segment: "user-groups", Route: "/user-groups",
		Title: "User groups", Module: ModuleSecurity, LabelField: "name",
		Columns: []Column{{Field: "name", Label: "Name", Width: 50}},
		Fields: []Field{
			{Name: "name", Label: "Name", Rules: required, MaxLen: 60},
			{Name: "disabled", Label: "Disabled", Kind: KindBool},
		},
	},
	{
		Name: "users", Segment: "users-security", Route: "/users",
		Title: "Users", Module: ModuleSecurity, LabelField: "name",
		Columns: []Column{{Field: "name", Label: "Name", Width: 30}, {Field: "email", Label: "Email", Width: 30}},
		Fields: []Field{
			{Name: "userGroupId", Label: "User group", Kind: KindForeignKey, Ref: "user-groups", Rules: required},
			{Name: "name", Label: "Name", Rules: required, MaxLen: 60},
			{Name: "email", Label: "Email", Rules: "required,email", MaxLen: 60},
			{Name: "password", Label: "Password", Kind: KindPassword},
			{Name: "isAdmin", Label: "Admin", Kind: KindBool},
			{Name: "isSuperUser", Label: "Super user", Kind: KindBool},
			{Name: "isBlocked", Label: "Blocked", Kind: KindBool},
			{Name: "blockReasonId", Label: "Block reason", Kind: KindForeignKey, Ref: "block-reasons"},
			{Name: "mustChangePasswordNextLogon", Label: "Must change password", Kind: KindBool},
			{Name: "isDisabled", Label: "Disabled", Kind: KindBool},
			{Name: "avatar", Label: "Avatar"},
		},
	},
	{
		Name: "modules", Segment: "modules", Route: "/modules",
		Title: "Modules", Module: ModuleSecurity, LabelField: "name",
		Columns: []Column{{Field: "name", Label: "Name", Width: 50}},
		Fields: []Field{
			{Name: "name", Label: "Name", Rules: required, MaxLen: 60},
			{Name: "disabled", Label: "Disabled", Kind: KindBool},
		},
	},
	{
		Name: "menu-options", Segment: "menu-options", Route: "/menu-options",
		Title: "Menu options", Module: ModuleSecurity, LabelField: "label",
		Columns: []Column{
			{Field: "moduleId.name", Label: "Module", Width: 15},
			{Field: "sequence", Label: "Sequence", Width: 10},
			{Field: "label", Label: "Label", Width: 25},
			{Field: "route", Label: "Route", Width: 25},
		},
		Fields: []Field{
			{Name: "moduleId", Label: "Module", Kind: KindForeignKey, Ref: "modules", Rules: required},
			{Name: "sequence", Label: "Sequence", Rules: required, MaxLen: 20},
			{Name: "label", Label: "Label", Rules: required, MaxLen: 60},
			{Name: "route", Label: "Route", MaxLen: 60},
			{Name: "icon", Label: "Icon", MaxLen: 60},
			{Name: "key", Label: "Key", MaxLen: 60},
			{Name: "disabled", Label: "Disabled", Kind: KindBool},
		},
	},
	{
		Name: "profiles", Segment: "profiles", Route: "/profiles",
		Title: "Profiles", Module: ModuleSecurity, LabelField: "name",
		Columns: []Column{{Field: "userGroupId.name", Label: "User group", Width: 25}, {Field: "name", Label: "Name", Width: 35}},
		Fields: []Field{
			{Name: "userGroupId", Label: "User group", Kind: KindForeignKey, Ref: "user-groups"},
			{Name: "name", Label: "Name", Rules: required, MaxLen: 60},
			{Name: "disabled", Label: "Disabled", Kind: KindBool},
			{Name: "menuOptions", Label: "Permissions", Kind: KindGrants},
		},
	},
	{
		Name: "profile-options", Segment: "profile-options", Route: "/profile-options",
		Title: "Profile options", Module: ModuleSecurity, LabelField: "menuOptionKey",
		Columns: []Column{{Field: "profileId.name", Label: "Profile", Width: 25}, {Field: "menuOptionKey.label", Label: "Menu option", Width: 35}},
		Fields: []Field{
			{Name: "profileId", Label: "Profile", Kind: KindForeignKey, Ref: "profiles", Rules: required},
			{Name: "menuOptionKey", Label: "Menu option", Kind: KindForeignKey, Ref: "menu-options", Rules: required},
			{Name: "permitAll", Label: "All", Kind: KindBool},
			{Name: "permitCreate", Label: "Create", Kind: KindBool},
			{Name: "permitRestore", Label: "Show", Kind: KindBool},
			{Name: "permitUpdate", Label: "Update", Kind: KindBool},
			{Name: "permitDelete", Label: "Delete", Kind: KindBool},
			{Name: "disabled", Label: "Disabled", Kind: KindBool},
		},
	},
	{
		Name: "users-profiles", Segment: "users-profiles", Route: "/users-profiles",
		Title: "Users x profiles", Module: ModuleSecurity, LabelField: "id",
		Columns: []Column{{Field: "userId.name", Label: "User", Width: 30}, {Field: "profileId.name", Label: "Profile", Width: 30}},
		Fields: []Field{
			{Name: "userId", Label: "User", Kind: KindForeignKey, Ref: "users", Rules: required},
			{Name: "profileId", Label: "Profile", Kind: KindForeignKey, Ref: "profiles", Rules: required},
		},
	},
	{
		Name: "navigations", Segment: "navigations", Route: "/navigations",
		Title: "Navigation history", Module: ModuleSecurity, LabelField: "route",
		Columns: []Column{
			{Field: "userId.name", Label: "User", Width: 25},
			{Field: "navigationDate", Label: "Date", Width: 20},
			{Field: "route", Label: "Route", Width: 30},
		},
		Fields: []Field{
			{Name: "userId", Label: "User", Kind: KindForeignKey, Ref: "users", Rules: required},
			{Name: "navigationDate", Label: "Date", Kind: KindDate, Rules: required},
			{Name: "route", Label: "Route", Rules: required, MaxLen: 60},
		},
	},
	{
		Name: "vagas", Segment: "vagas", Route: "/vagas",
		Title: "Jobs", Module: ModuleRecruitment, LabelField: "nomeVaga",
		Columns: []Column{{Field: "nomeVaga", Label: "Job", Width: 35}, {Field: "cidadeId.nomeCidade", Label: "City", Width: 25}},
		Fields: []Field{
			{Name: "nomeVaga", Label: "Job", Rules: required, MaxLen: 60},
			{Name: "paisId", Label: "Country", Kind: KindForeignKey, Ref: "paises"},
			{Name: "estadoId", Label: "State", Kind: KindForeignKey, Ref: "estados"},
			{Name: "cidadeId", Label: "City", Kind: KindForeignKey, Ref: "cidades"},
			{Name: "descricao", Label: "Description", Kind: KindTextArea, Rules: required},
			{Name: "numeroCandidaturas", Label: "Applications", Kind: KindNumber},
			{Name: "desabilitado", Label: "Disabled", Kind: KindBool},
		},
	},
	{
		Name: "candidaturas", Segment: "candidaturas", Route: "/candidaturas",
		Title: "Applications", Module: ModuleRecruitment, LabelField: "nome",
		Columns: []Column{{Field: "nome", Label: "Name", Width: 35}, {Field: "cep", Label: "Postal code", Width: 12}},
		Fields: []Field{
			{Name: "nome", Label: "Name", Rules: required, MaxLen: 60},
			{Name: "cep", Label: "Postal code", MaxLen: 10},
			{Name: "paisId", Label: "Country", Kind: KindForeignKey, Ref: "paises"},
			{Name: "estadoId", Label: "State", Kind: KindForeignKey, Ref: "estados"},
			{Name: "cidadeId", Label: "City", Kind: KindForeignKey, Ref: "cidades"},
			{Name: "descricao", Label: "Description", Kind: KindTextArea},
		},
	},
	{
		Name: "paises", Segment: "paises", Route: "/paises",
		Title: "Countries", Module: ModuleCommon, LabelField: "nomePais",
		Columns: []Column{{Field: "codigoPais", Label: "Code", Width: 8}, {Field: "nomePais", Label: "Country", Width: 40}},
		Fields: []Field{
			{Name: "codigoPais", Label: "Code", Rules: required, MaxLen: 10},
			{Name: "nomePais", Label: "Country", Rules: required, MaxLen: 60},
		},
	},
	{
		Name: "estados", Segment: "estados", Route: "/estados",
		Title: "States", Module: ModuleCommon, LabelField: "uf",
		Columns: []Column{{Field: "uf", Label: "UF", Width: 4}, {Field: "nomeEstado", Label: "State", Width: 40}},
		Fields: []Field{
			{Name: "codigoIbge", Label: "IBGE code", Rules: required, MaxLen: 10},
			{Name: "uf", Label: "UF", Rules: required, MaxLen: 2},
			{Name: "nomeEstado", Label: "State", Rules: required, MaxLen: 60},
		},
	},
	{
		Name: "cidades", Segment: "cidades", Route: "/cidades",
		Title: "Cities", Module: ModuleCommon, LabelField: "nomeCidade",
		Columns: []Column{{Field: "estadoId.uf", Label: "UF", Width: 4}, {Field: "nomeCidade", Label: "City", Width: 40}},
		Fields: []Field{
			{Name: "estadoId", Label: "UF", Kind: KindForeignKey, Ref: "estados", Rules: required},
			{Name: "codigoIbge", Label: "IBGE code", MaxLen: 60},
			{Name: "nomeCidade", Label: "City", Rules: required, MaxLen: 60},
		},
	},
	{
		Name: "ceps", Segment: "ceps", Route: "/ceps",
		Title: "Postal codes", Module: ModuleCommon, LabelField: "codigoCep",
		Columns: []Column{
			{Field: "codigoCep", Label: "Postal code", Width: 10},
			{Field: "logradouro", Label: "Street", Width: 30},
			{Field: "bairro", Label: "District", Width: 20},
		},
		Fields: []Field{
			{Name: "codigoCep", Label: "Postal code", Rules: required, MaxLen: 10},
			{Name: "logradouro", Label: "Street", MaxLen: 60},
			{Name: "bairro", Label: "District", MaxLen: 60},
			{Name: "estadoId", Label: "State", Kind: KindForeignKey, Ref: "estados"},
			{Name: "cidadeId", Label: "City", Kind: KindForeignKey, Ref: "cidades"},
		},
	},
}

// Resources returns the catalog in menu order.
func Resources() []*Resource {
	out := make([]*Resource, len(catalog))
	copy(out, catalog)
	return out
}

// FindResource looks a resource up by catalog name, API segment or route.
func FindResource(name string) (*Resource, bool) {
	name = strings.TrimPrefix(name, "/")
	for _, r := range catalog {
		if r.Name == name || r.Segment == name || strings.TrimPrefix(r.Route, "/") == name {
			return r, true
		}
	}
	return nil, false
}

// ResourceNames returns the sorted catalog keys.
func ResourceNames() []string {
	names := make([]string, 0, len(catalog))
	for _, r := range catalog {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}
