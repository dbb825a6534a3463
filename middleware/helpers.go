package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/academy-system/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUsername = "username"
	jwtClaimRole     = "role"
)

var errNoClaims = errors.New("user claims not found in context or invalid type")

func GetUsernameFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}

	username, ok := claims[jwtClaimUsername].(string)
	if !ok || username == "" {
		return "", fmt.Errorf("missing or invalid '%s' claim in token", jwtClaimUsername)
	}
	return username, nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}

	roleStr, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	return models.UserRole(roleStr), nil
}

// writeError пишет ошибку в том же формате, что и handlers.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
