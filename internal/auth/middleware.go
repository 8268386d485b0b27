package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextKey - тип для ключей контекста.
type ContextKey string

const (
	// ClaimsKey - ключ для хранения claims в контексте.
	ClaimsKey ContextKey = "claims"
)

// errUnauthorized - единый ответ на отказ в доступе без подробностей.
var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")

// JWTMiddleware создаёт middleware для проверки JWT токена.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractTokenFromHeader(c)

			if token == "" {
				token = extractTokenFromCookie(c)
			}

			if token == "" {
				return errUnauthorized
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				return errUnauthorized
			}

			c.Set(string(ClaimsKey), claims)

			return next(c)
		}
	}
}

// RequireRole пропускает только владельцев токенов с одной из ролей.
// Должен стоять после JWTMiddleware.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := GetClaimsFromContext(c)
			if err != nil {
				return err
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return errUnauthorized
		}
	}
}

// extractTokenFromHeader извлекает токен из заголовка Authorization.
func extractTokenFromHeader(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Проверка формата "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}

	return ""
}

// extractTokenFromCookie извлекает токен из cookie.
func extractTokenFromCookie(c echo.Context) string {
	cookie, err := c.Cookie("Authorization")
	if err != nil {
		return ""
	}
	return cookie.Value
}

// GetClaimsFromContext извлекает claims из контекста.
func GetClaimsFromContext(c echo.Context) (*Claims, error) {
	claims, ok := c.Get(string(ClaimsKey)).(*Claims)
	if !ok {
		return nil, errUnauthorized
	}
	return claims, nil
}
