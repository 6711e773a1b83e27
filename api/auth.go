package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenIdentity struct {
	UserID    int64
	ExpiresAt time.Time
}

// ParseToken reads the operator identity out of an access token without
// verifying its signature; the backend verifies it on every call.
func ParseToken(token string) (TokenIdentity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenIdentity{}, fmt.Errorf("parse access token: %w", err)
	}

	var identity TokenIdentity
	for _, key := range []string{"user_id", "id", "sub"} {
		if id, ok := claimInt(claims[key]); ok {
			identity.UserID = id
			break
		}
	}
	if identity.UserID == 0 {
		return TokenIdentity{}, fmt.Errorf("access token carries no user id")
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	return identity, nil
}

func (t TokenIdentity) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

func claimInt(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), v != 0
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil && id != 0
	}
	return 0, false
}

func (c *Client) GetUser(ctx context.Context, rc RequestContext, id int64) (User, error) {
	path := "/users/" + strconv.FormatInt(id, 10) + "/"
	req, err := c.newRequest(ctx, rc, http.MethodGet, path, nil, nil)
	if err != nil {
		return User{}, err
	}

	var user User
	if err := c.doJSON(req, &user); err != nil {
		return User{}, err
	}
	if user.ID == 0 {
		return User{}, fmt.Errorf("user %d: empty profile", id)
	}
	return user, nil
}
