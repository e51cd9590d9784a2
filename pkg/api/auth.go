package api

import (
	"context"
	"fmt"
	"net/http"

	jwt "github.com/golang-jwt/jwt/v5"

	"bookpasal/pkg/domain"
)

// tokenClaims are the custom claims the auth server embeds in the access
// token alongside the registered set.
type tokenClaims struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Login obtains a token pair and opens a session. The user identity travels
// inside the access token's claims, so no extra profile call is needed.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	payload := map[string]string{"username": username, "password": password}
	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := c.send(ctx, http.MethodPost, "/users/token/", mustJSON(payload), &resp, ""); err != nil {
		return domain.User{}, err
	}
	user, err := userFromToken(resp.Access)
	if err != nil {
		return domain.User{}, err
	}
	if err := c.sessions.Login(user, resp.Access, resp.Refresh); err != nil {
		return domain.User{}, err
	}
	c.logger.Info("logged in", "user", user.Username, "role", user.Role)
	return user, nil
}

// Logout tears down the local session. The API has no logout endpoint; the
// refresh token simply expires server-side.
func (c *Client) Logout() error {
	return c.sessions.Logout()
}

// Me fetches the authenticated user's profile from the server.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.Do(ctx, http.MethodGet, "/users/me/", nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func userFromToken(access string) (domain.User, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return domain.User{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Username == "" {
		return domain.User{}, fmt.Errorf("access token missing identity claims")
	}
	return domain.User{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}
