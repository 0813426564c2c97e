package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"battlefield/internal/data"
)

const (
	cookieName  = "user_id"
	maxNickname = 24
)

var (
	ErrNoSession   = errors.New("missing user id cookie")
	ErrBadNickname = errors.New("nickname must be 1-24 characters")
)

// Directory is the part of the store the account endpoints use.
// Lookups of unknown users fail with data.ErrPlayerNotFound.
type Directory interface {
	CreateUser(ctx context.Context, nickname string) (tag int, userID string, err error)
	FindUser(ctx context.Context, nickname string, tag int) (string, error)
	Profile(ctx context.Context, userID string) (data.Profile, error)
}

// Accounts issues the user_id cookie the match endpoints use to attribute results.
type Accounts struct {
	users Directory
}

func NewAccounts(users Directory) *Accounts {
	return &Accounts{users: users}
}

type credentials struct {
	Nickname string `json:"nickname"`
	Tag      int    `json:"tag"`
}

type session struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Tag      int    `json:"tag"`
}

// RegisterHandler creates an account with a random tag: POST {"nickname"}.
func (a *Accounts) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	nick, err := normalizeNickname(req.Nickname)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tag, userID, err := a.users.CreateUser(r.Context(), nick)
	if err != nil {
		log.Println("register:", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	startSession(w, session{UserID: userID, Nickname: nick, Tag: tag})
}

// LoginHandler restores the cookie for an existing nickname and tag.
func (a *Accounts) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	nick, err := normalizeNickname(req.Nickname)
	if err != nil || req.Tag <= 0 {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}

	userID, err := a.users.FindUser(r.Context(), nick, req.Tag)
	if errors.Is(err, data.ErrPlayerNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("login:", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	startSession(w, session{UserID: userID, Nickname: nick, Tag: req.Tag})
}

// ProfileHandler returns trophies, coins and medals of the signed-in user.
func (a *Accounts) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	p, err := a.users.Profile(r.Context(), userID)
	if errors.Is(err, data.ErrPlayerNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("profile:", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

func startSession(w http.ResponseWriter, s session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    s.UserID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s)
}

func normalizeNickname(raw string) (string, error) {
	nick := strings.TrimSpace(raw)
	if nick == "" || utf8.RuneCountInString(nick) > maxNickname {
		return "", ErrBadNickname
	}
	return nick, nil
}

// UserID extracts the user_id cookie.
func UserID(r *http.Request) (string, error) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	return c.Value, nil
}
