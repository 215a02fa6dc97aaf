// ABOUTME: Uniform CRUD endpoints mounted for every catalog resource
// ABOUTME: List, count, select, get, create, update and delete with foreign-key expansion
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/models"
)

const (
	usersResource       = "users"
	menuOptionsResource = "menu-options"
	modulesResource     = "modules"
	profilesResource    = "profiles"
	usersProfiles       = "users-profiles"
)

type listRequest struct {
	Search      string             `json:"search"`
	Page        int                `json:"page"`
	RowsPerPage int                `json:"rowsPerPage"`
	ColumnOrder []models.Direction `json:"columnOrder"`
}

type countRequest struct {
	Search string `json:"search"`
}

func (s *Server) mountResource(g *gin.RouterGroup, res *models.Resource) {
	g.POST("/list", s.listHandler(res))
	g.POST("/count", s.countHandler(res))
	g.POST("/select", s.selectHandler(res))
	g.GET("/:id", s.getHandler(res))
	g.POST("", s.createHandler(res))
	g.PUT("", s.updateHandler(res))
	g.DELETE("/:id", s.deleteHandler(res))
}

func (s *Server) listHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req listRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid list request")
			return
		}
		if req.RowsPerPage <= 0 {
			req.RowsPerPage = models.DefaultRowsPerPage
		}
		if req.Page < 0 {
			req.Page = 0
		}

		rows, err := s.search(c.Request.Context(), res, req.Search)
		if err != nil {
			s.internalError(c, "list", err)
			return
		}
		sortRows(res, rows, req.ColumnOrder)

		start := req.Page * req.RowsPerPage
		if start > len(rows) {
			start = len(rows)
		}
		end := start + req.RowsPerPage
		if end > len(rows) {
			end = len(rows)
		}
		page := rows[start:end]
		for i := range page {
			page[i] = public(res, page[i])
		}
		c.JSON(http.StatusOK, gin.H{"data": page})
	}
}

func (s *Server) countHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req countRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid count request")
			return
		}
		rows, err := s.search(c.Request.Context(), res, req.Search)
		if err != nil {
			s.internalError(c, "count", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"count": len(rows)}})
	}
}

func (s *Server) selectHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := s.records.Find(c.Request.Context(), res.Name, "")
		if err != nil {
			s.internalError(c, "select", err)
			return
		}
		out := make([]gin.H, 0, len(rows))
		for _, r := range rows {
			out = append(out, gin.H{"id": r.ID(), res.LabelField: r[res.LabelField]})
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}

func (s *Server) getHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := s.records.Get(c.Request.Context(), res.Name, c.Param("id"))
		if errors.Is(err, db.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "record not found")
			return
		}
		if err != nil {
			s.internalError(c, "get", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": public(res, s.expand(c.Request.Context(), res, rec))})
	}
}

func (s *Server) createHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.Record
		if err := c.ShouldBindJSON(&body); err != nil || body == nil {
			respondError(c, http.StatusBadRequest, "invalid record")
			return
		}
		delete(body, models.IDField)

		rec, status, msg := s.save(c.Request.Context(), res, body, false)
		if msg != "" {
			respondError(c, status, msg)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": public(res, rec)})
	}
}

func (s *Server) updateHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.Record
		if err := c.ShouldBindJSON(&body); err != nil || body == nil {
			respondError(c, http.StatusBadRequest, "invalid record")
			return
		}
		if !body.HasID() {
			respondError(c, http.StatusBadRequest, "id is required")
			return
		}

		rec, status, msg := s.save(c.Request.Context(), res, body, true)
		if msg != "" {
			respondError(c, status, msg)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": public(res, rec)})
	}
}

func (s *Server) deleteHandler(res *models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		if res.Name == usersResource && id == c.GetString(userIDKey) {
			respondError(c, http.StatusBadRequest, "you cannot delete yourself")
			return
		}
		err := s.records.Delete(ctx, res.Name, id)
		if errors.Is(err, db.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "record not found")
			return
		}
		if err != nil {
			s.internalError(c, "delete", err)
			return
		}
		if res.Name == usersResource {
			if err := s.creds.Delete(ctx, id); err != nil {
				s.logger.Warn("failed to delete credentials", zap.String("user_id", id), zap.Error(err))
			}
		}
		c.Status(http.StatusNoContent)
	}
}

// save validates and persists a create or update. A non-empty message
// means the write was rejected with status.
func (s *Server) save(ctx context.Context, res *models.Resource, body models.Record, update bool) (models.Record, int, string) {
	password := ""
	if res.Name == usersResource {
		password = strings.TrimSpace(models.Scalar(body["password"]))
		if !update && password == "" {
			return nil, http.StatusBadRequest, "password is required"
		}
	}

	doc := models.Payload(res, body, body.ID())
	delete(doc, "password")

	if msg := s.validate(ctx, res, doc); msg != "" {
		return nil, http.StatusBadRequest, msg
	}

	var (
		rec models.Record
		err error
	)
	if update {
		rec, err = s.records.Update(ctx, res.Name, doc)
	} else {
		rec, err = s.records.Create(ctx, res.Name, doc)
	}
	if errors.Is(err, db.ErrRecordNotFound) {
		return nil, http.StatusNotFound, "record not found"
	}
	if err != nil {
		s.logger.Error("write failed", zap.String("resource", res.Name), zap.Error(err))
		return nil, http.StatusInternalServerError, "internal error"
	}

	if res.Name == usersResource {
		if err := s.creds.Set(ctx, rec.ID(), rec.String("email"), password); err != nil {
			if !update {
				_ = s.records.Delete(ctx, res.Name, rec.ID())
			}
			if errors.Is(err, db.ErrEmailTaken) {
				return nil, http.StatusBadRequest, "email already in use"
			}
			s.logger.Error("credentials write failed", zap.String("user_id", rec.ID()), zap.Error(err))
			return nil, http.StatusInternalServerError, "internal error"
		}
	}

	return s.expand(ctx, res, rec), 0, ""
}

// validate checks required fields and that foreign keys resolve.
func (s *Server) validate(ctx context.Context, res *models.Resource, doc models.Record) string {
	for _, f := range res.Fields {
		v := strings.TrimSpace(models.Scalar(doc[f.Name]))
		if f.Required() && v == "" {
			return fmt.Sprintf("%s is required", f.Label)
		}
		if f.MaxLen > 0 && f.Kind != models.KindForeignKey && len([]rune(v)) > f.MaxLen {
			return fmt.Sprintf("%s must have at most %d characters", f.Label, f.MaxLen)
		}
		if f.Kind == models.KindForeignKey && v != "" {
			ref, ok := models.FindResource(f.Ref)
			if !ok {
				continue
			}
			if _, err := s.resolveRef(ctx, ref, v); err != nil {
				return fmt.Sprintf("%s not found", f.Label)
			}
		}
	}
	return ""
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error("request failed",
		zap.String("op", op),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err))
	respondError(c, http.StatusInternalServerError, "internal error")
}

// expand replaces foreign-key ids with {id, label} objects of the
// referenced record. Dangling references expand to null.
func (s *Server) expand(ctx context.Context, res *models.Resource, rec models.Record) models.Record {
	out := rec.Clone()
	for _, f := range res.ForeignKeys() {
		id := models.Scalar(rec[f.Name])
		if id == "" {
			out[f.Name] = nil
			continue
		}
		ref, ok := models.FindResource(f.Ref)
		if !ok {
			continue
		}
		target, err := s.resolveRef(ctx, ref, id)
		if err != nil {
			out[f.Name] = nil
			continue
		}
		out[f.Name] = map[string]any{"id": id, ref.LabelField: target[ref.LabelField]}
	}
	return out
}

// resolveRef loads a referenced record by id. Menu options are also
// referenced by their key.
func (s *Server) resolveRef(ctx context.Context, ref *models.Resource, id string) (models.Record, error) {
	rec, err := s.records.Get(ctx, ref.Name, id)
	if err == nil || !errors.Is(err, db.ErrRecordNotFound) || ref.Name != menuOptionsResource {
		return rec, err
	}
	found, ferr := s.records.FindBy(ctx, ref.Name, "key", id)
	if ferr != nil {
		return nil, ferr
	}
	if len(found) == 0 {
		return nil, db.ErrRecordNotFound
	}
	return found[0], nil
}

func (s *Server) expandAll(ctx context.Context, res *models.Resource, rows []models.Record) []models.Record {
	if len(res.ForeignKeys()) == 0 {
		return rows
	}
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = s.expand(ctx, res, r)
	}
	return out
}

// search returns the expanded records of res whose displayed values
// contain text, case-insensitively. List and count share it so the total
// always matches the rows.
func (s *Server) search(ctx context.Context, res *models.Resource, text string) ([]models.Record, error) {
	rows, err := s.records.Find(ctx, res.Name, "")
	if err != nil {
		return nil, err
	}
	rows = s.expandAll(ctx, res, rows)

	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return rows, nil
	}
	out := make([]models.Record, 0, len(rows))
	for _, rec := range rows {
		if matchesSearch(res, rec, needle) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// matchesSearch looks at list columns and form fields, with foreign keys
// read through their label. Secrets, flags and grants are never searched.
func matchesSearch(res *models.Resource, rec models.Record, needle string) bool {
	for _, col := range res.Columns {
		if strings.Contains(strings.ToLower(rec.Display(col.Field)), needle) {
			return true
		}
	}
	for _, f := range res.Fields {
		path := f.Name
		switch f.Kind {
		case models.KindPassword, models.KindBool, models.KindGrants:
			continue
		case models.KindForeignKey:
			ref, ok := models.FindResource(f.Ref)
			if !ok {
				continue
			}
			path += "." + ref.LabelField
		}
		if strings.Contains(strings.ToLower(rec.Display(path)), needle) {
			return true
		}
	}
	return false
}

// public drops secrets from records leaving the server.
func public(res *models.Resource, rec models.Record) models.Record {
	if res.Name != usersResource {
		return rec
	}
	out := rec.Clone()
	delete(out, "password")
	return out
}

// sortRows orders rows by the list columns; columnOrder[i] is the
// direction of column i and earlier columns take priority.
func sortRows(res *models.Resource, rows []models.Record, order []models.Direction) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for idx, dir := range order {
			if idx >= len(res.Columns) || dir == "" {
				continue
			}
			path := res.Columns[idx].Field
			a := strings.ToLower(rows[i].Display(path))
			b := strings.ToLower(rows[j].Display(path))
			if a == b {
				continue
			}
			if dir == models.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}
