package handlers

import (
	"net/http"

	"hcpresearch-backend/services/pathways"

	"github.com/labstack/echo/v4"
)

func PathwaysHandler(service pathways.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := service.Filter(c.Request().Context(), c.QueryParam("keywords"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(http.StatusOK, res)
	}
}

func PathwayInsightsHandler(service pathways.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		analysis, err := service.GenerateInsights(c.Request().Context(), c.QueryParam("keywords"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]string{"analysis": analysis})
	}
}
