// ABOUTME: Session, password recovery and own-profile endpoints of the dev server
// ABOUTME: Sign-in verifies bcrypt credentials and issues a JWT; resets use one-time ulid tokens
package devserver

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/models"
)

const resetTokenTTL = time.Hour

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type profileRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

func userFromRecord(rec models.Record) models.User {
	return models.User{
		ID:        rec.ID(),
		Name:      rec.String("name"),
		Email:     rec.String("email"),
		AvatarURL: rec.String("avatar"),
	}
}

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}
	ctx := c.Request.Context()

	userID, err := s.creds.Verify(ctx, req.Email, req.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, "incorrect email/password combination")
		return
	}
	if err != nil {
		s.internalError(c, "sign-in", err)
		return
	}

	rec, err := s.records.Get(ctx, usersResource, userID)
	if err != nil {
		s.internalError(c, "sign-in", err)
		return
	}
	if rec["isDisabled"] == true {
		respondError(c, http.StatusUnauthorized, "user is disabled")
		return
	}
	if rec["isBlocked"] == true {
		respondError(c, http.StatusUnauthorized, "user is blocked")
		return
	}

	user := userFromRecord(rec)
	token, err := s.issueToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.internalError(c, "sign-in", err)
		return
	}
	s.logger.Info("user signed in", zap.String("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// forgotPassword always answers 204 whether or not the account exists.
// The reset link is logged in place of mail delivery.
func (s *Server) forgotPassword(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		respondError(c, http.StatusBadRequest, "email is required")
		return
	}

	userID, err := s.creds.UserIDByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, db.ErrRecordNotFound) {
			s.logger.Warn("password recovery lookup failed", zap.Error(err))
		}
		c.Status(http.StatusNoContent)
		return
	}

	token := ulid.Make().String()
	s.resetMu.Lock()
	s.resets[token] = passwordReset{userID: userID, expires: s.now().Add(resetTokenTTL)}
	s.resetMu.Unlock()

	s.logger.Info("password reset requested",
		zap.String("user_id", userID),
		zap.String("reset_link", "/reset-password?token="+token))
	c.Status(http.StatusNoContent)
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		respondError(c, http.StatusBadRequest, "reset token is required")
		return
	}
	if req.Password == "" {
		respondError(c, http.StatusBadRequest, "password is required")
		return
	}
	if req.Password != req.PasswordConfirmation {
		respondError(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	s.resetMu.Lock()
	reset, ok := s.resets[req.Token]
	delete(s.resets, req.Token)
	s.resetMu.Unlock()
	if !ok || s.now().After(reset.expires) {
		respondError(c, http.StatusBadRequest, "reset token is invalid or expired")
		return
	}

	ctx := c.Request.Context()
	rec, err := s.records.Get(ctx, usersResource, reset.userID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "user not found")
		return
	}
	if err := s.creds.Set(ctx, reset.userID, rec.String("email"), req.Password); err != nil {
		s.internalError(c, "reset-password", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getProfile(c *gin.Context) {
	rec, err := s.records.Get(c.Request.Context(), usersResource, c.GetString(userIDKey))
	if errors.Is(err, db.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.internalError(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userFromRecord(rec)})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid profile")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}
	if req.Password != "" && req.Password != req.RepeatPassword {
		respondError(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)
	rec, err := s.records.Get(ctx, usersResource, userID)
	if errors.Is(err, db.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.internalError(c, "profile", err)
		return
	}

	rec["name"] = req.Name
	if email := strings.TrimSpace(req.Email); email != "" {
		rec["email"] = email
	}
	if err := s.creds.Set(ctx, userID, rec.String("email"), req.Password); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			respondError(c, http.StatusBadRequest, "email already in use")
			return
		}
		s.internalError(c, "profile", err)
		return
	}
	updated, err := s.records.Update(ctx, usersResource, rec)
	if err != nil {
		s.internalError(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userFromRecord(updated)})
}

// uploadAvatar stores the multipart "avatar" file and points the caller's
// avatar field at its public URL.
func (s *Server) uploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "avatar file is required")
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)
	rec, err := s.records.Get(ctx, usersResource, userID)
	if errors.Is(err, db.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.internalError(c, "avatar", err)
		return
	}

	if err := os.MkdirAll(s.uploads, 0o755); err != nil {
		s.internalError(c, "avatar", err)
		return
	}
	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(s.uploads, name)); err != nil {
		s.internalError(c, "avatar", err)
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	url := scheme + "://" + c.Request.Host + "/files/" + name

	rec["avatar"] = url
	if _, err := s.records.Update(ctx, usersResource, rec); err != nil {
		s.internalError(c, "avatar", err)
		return
	}
	s.logger.Info("avatar uploaded", zap.String("user_id", userID), zap.Int64("size", file.Size))
	c.JSON(http.StatusOK, gin.H{"data": url})
}
