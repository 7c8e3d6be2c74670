package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hcpresearch-backend/lib/testutil"
	"hcpresearch-backend/services/auth"
	authdb "hcpresearch-backend/services/auth/db"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type noopSender struct{}

func (noopSender) SendVerificationCode(ctx context.Context, userEmail, code string) error {
	return nil
}

func TestBearerAuth(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "cmd/hcp-server/handlers",
		DbSchema: authdb.Schema,
	})
	defer cleanup()

	service := auth.NewService(setup.DB, auth.Options{
		Sender:               noopSender{},
		TestEmail:            "analyst@example.org",
		TestVerificationCode: "BYPASS",
	})

	token, err := service.ConsumeVerificationCode(context.Background(), "analyst@example.org", "BYPASS")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/api/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"email": c.Get("user_email").(string),
		})
	}, BearerAuth(service))

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "analyst@example.org")
}

func TestStartLoginValidation(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "cmd/hcp-server/handlers",
		DbSchema: authdb.Schema,
	})
	defer cleanup()

	service := auth.NewService(setup.DB, auth.Options{Sender: noopSender{}})

	e := echo.New()
	e.POST("/api/auth/start", StartLoginHandler(service))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/start",
		strings.NewReader(`{"email": ""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/start",
		strings.NewReader(`{"email": "analyst@example.org"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
