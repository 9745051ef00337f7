package auth

import "github.com/golang-jwt/jwt/v5"

// UserFromAccessToken extracts a display identity from an access token
// without verifying its signature; the value is informational only. Returns
// an empty string when the token is opaque or carries no known claim.
func UserFromAccessToken(raw string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}

	for _, name := range []string{"upn", "unique_name", "app_displayname", "oid"} {
		if value, ok := claims[name].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
