// Package users implements account lifecycle: registration, the session
// token flow, credential and profile updates, and the channel read models.
package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/clipstream/internal/apperr"
	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/domain/views"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/internal/token"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Service manages accounts and sessions.
type Service struct {
	store  storage.UserStore
	issuer *token.Issuer
	blobs  media.BlobStore
	log    *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, issuer *token.Issuer, blobs media.BlobStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, issuer: issuer, blobs: blobs, log: log}
}

// RegisterInput carries the registration form. Avatar is required, CoverImage
// optional.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *media.Upload
	CoverImage *media.Upload
}

// Session is the result of a successful login or refresh.
type Session struct {
	User         user.User `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
}

// Register creates an account. Username and email are case-normalized; the
// avatar upload is stored before the row is written.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.FullName == "" || in.Password == "" {
		return user.User{}, apperr.BadRequest("username, email, fullName and password are required")
	}
	if !strings.Contains(in.Email, "@") {
		return user.User{}, apperr.BadRequest("email is invalid")
	}
	if len(in.Password) < 6 {
		return user.User{}, apperr.BadRequest("password must be at least 6 characters")
	}
	if in.Avatar == nil {
		return user.User{}, apperr.BadRequest("avatar file is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, apperr.Internal("hash password", err)
	}

	avatarURL, err := s.blobs.Put(ctx, "avatars", in.Avatar.Filename, in.Avatar.ContentType, in.Avatar.Content)
	if err != nil {
		return user.User{}, apperr.Internal("store avatar", err)
	}
	var coverURL string
	if in.CoverImage != nil {
		coverURL, err = s.blobs.Put(ctx, "covers", in.CoverImage.Filename, in.CoverImage.ContentType, in.CoverImage.Content)
		if err != nil {
			return user.User{}, apperr.Internal("store cover image", err)
		}
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return user.User{}, apperr.Conflict("username or email already exists")
		}
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).Infof("user %s registered", created.Username)
	return created, nil
}

// Login verifies credentials and starts a session. The issued refresh token
// becomes the single active one for the account.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (Session, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return Session{}, apperr.BadRequest("username or email and password are required")
	}

	u, err := s.store.GetUserByLogin(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperr.Unauthorized("invalid credentials")
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, apperr.Unauthorized("invalid credentials")
	}

	session, err := s.startSession(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.log.WithField("user_id", u.ID).Info("user logged in")
	return session, nil
}

// Logout clears the stored refresh token, invalidating the session.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.store.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	s.log.WithField("user_id", userID).Info("user logged out")
	return nil
}

// Refresh rotates the session: the presented token must verify and must be
// the stored one. The swap is atomic in storage, so a token can be spent at
// most once; losers of the race are rejected as unauthorized.
func (s *Service) Refresh(ctx context.Context, presented string) (Session, error) {
	if presented == "" {
		return Session{}, apperr.Unauthorized("refresh token is required")
	}
	userID, err := s.issuer.VerifyRefresh(presented)
	if err != nil {
		return Session{}, apperr.Unauthorized("invalid refresh token")
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperr.Unauthorized("invalid refresh token")
		}
		return Session{}, err
	}

	access, err := s.issuer.AccessToken(u)
	if err != nil {
		return Session{}, apperr.Internal("issue access token", err)
	}
	refresh, err := s.issuer.RefreshToken(u.ID)
	if err != nil {
		return Session{}, apperr.Internal("issue refresh token", err)
	}

	if err := s.store.RotateRefreshToken(ctx, u.ID, presented, refresh); err != nil {
		if errors.Is(err, storage.ErrTokenMismatch) || errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperr.Unauthorized("refresh token is expired or already used")
		}
		return Session{}, err
	}

	s.log.WithField("user_id", u.ID).Debug("session refreshed")
	return Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// ChangePassword verifies the old password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.BadRequest("old and new passwords are required")
	}
	if len(newPassword) < 6 {
		return apperr.BadRequest("password must be at least 6 characters")
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return apperr.BadRequest("incorrect old password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u.PasswordHash = string(hash)
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("password changed")
	return nil
}

// Get returns the account by ID.
func (s *Service) Get(ctx context.Context, userID string) (user.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apperr.NotFound("user not found")
		}
		return user.User{}, err
	}
	return u, nil
}

// UpdateAccount changes the mutable profile fields.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (user.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return user.User{}, apperr.BadRequest("fullName and email are required")
	}
	if !strings.Contains(email, "@") {
		return user.User{}, apperr.BadRequest("email is invalid")
	}

	u, err := s.Get(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	u.FullName = fullName
	u.Email = email

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return user.User{}, apperr.Conflict("email already in use")
		}
		return user.User{}, err
	}
	s.log.WithField("user_id", userID).Info("account updated")
	return updated, nil
}

// UpdateAvatar stores the new avatar and removes the previous blob.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, up *media.Upload) (user.User, error) {
	return s.updateImage(ctx, userID, up, "avatars", "avatar file is required", func(u *user.User, url string) string {
		old := u.AvatarURL
		u.AvatarURL = url
		return old
	})
}

// UpdateCoverImage stores the new cover image and removes the previous blob.
func (s *Service) UpdateCoverImage(ctx context.Context, userID string, up *media.Upload) (user.User, error) {
	return s.updateImage(ctx, userID, up, "covers", "cover image file is required", func(u *user.User, url string) string {
		old := u.CoverImageURL
		u.CoverImageURL = url
		return old
	})
}

func (s *Service) updateImage(ctx context.Context, userID string, up *media.Upload, folder, missingMsg string, swap func(*user.User, string) string) (user.User, error) {
	if up == nil {
		return user.User{}, apperr.BadRequest(missingMsg)
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	url, err := s.blobs.Put(ctx, folder, up.Filename, up.ContentType, up.Content)
	if err != nil {
		return user.User{}, apperr.Internal("store image", err)
	}
	old := swap(&u, url)

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	if old != "" {
		if err := s.blobs.Delete(ctx, old); err != nil {
			s.log.WithError(err).Warn("delete replaced image")
		}
	}
	return updated, nil
}

// ChannelProfile returns the public channel page for a username.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return views.ChannelProfile{}, apperr.BadRequest("username is required")
	}
	profile, err := s.store.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return views.ChannelProfile{}, apperr.NotFound("channel not found")
		}
		return views.ChannelProfile{}, err
	}
	return profile, nil
}

// WatchHistory returns the viewer's history in first-watched order.
func (s *Service) WatchHistory(ctx context.Context, userID string) ([]views.WatchHistoryEntry, error) {
	history, err := s.store.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if history == nil {
		history = []views.WatchHistoryEntry{}
	}
	return history, nil
}

func (s *Service) startSession(ctx context.Context, u user.User) (Session, error) {
	access, err := s.issuer.AccessToken(u)
	if err != nil {
		return Session{}, apperr.Internal("issue access token", err)
	}
	refresh, err := s.issuer.RefreshToken(u.ID)
	if err != nil {
		return Session{}, apperr.Internal("issue refresh token", err)
	}
	if err := s.store.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return Session{}, err
	}
	u.RefreshToken = refresh
	return Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}
