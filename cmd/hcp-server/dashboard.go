package main

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var dashboardPage []byte

func dashboardHandler(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, dashboardPage)
}
