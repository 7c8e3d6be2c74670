// Package handlers binds the research services to the JSON API.
package handlers

import (
	"net/http"
	"strings"

	"hcpresearch-backend/services/auth"

	"github.com/labstack/echo/v4"
)

type startLoginRequest struct {
	Email string `json:"email"`
}

func StartLoginHandler(service auth.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req startLoginRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(req.Email) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "email is required")
		}

		err := service.StartLogin(c.Request().Context(), req.Email)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"ok": true})
	}
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func VerifyHandler(service auth.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req verifyRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		token, err := service.ConsumeVerificationCode(c.Request().Context(), req.Email, req.Code)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]string{"token": token})
	}
}

// BearerAuth rejects requests without a valid bearer token and stashes
// the authenticated email on the echo context under "user_email".
func BearerAuth(service auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			user, err := service.VerifyToken(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set("user_email", user.Email)
			return next(c)
		}
	}
}
