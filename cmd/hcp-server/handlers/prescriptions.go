package handlers

import (
	"net/http"
	"strconv"

	"hcpresearch-backend/services/prescriptions"

	"github.com/labstack/echo/v4"
)

func sectionParam(c echo.Context) (int, error) {
	raw := c.QueryParam("section")
	if raw == "" || raw == "all" {
		return 0, nil
	}
	section, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "section must be a BNF section code")
	}
	return section, nil
}

func PrescriptionSectionsHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"sections": service.Sections(c.Request().Context()),
		})
	}
}

func PrescriptionSummaryHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := sectionParam(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, service.Summary(c.Request().Context(), section))
	}
}

func TopRegionsHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := sectionParam(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"regions": service.TopRegions(c.Request().Context(), section),
		})
	}
}

func TopDrugsHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := sectionParam(c)
		if err != nil {
			return err
		}
		drugs, err := service.TopDrugs(c.Request().Context(), section, c.QueryParam("by"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"drugs": drugs})
	}
}

func CostDistributionHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := sectionParam(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"slices": service.CostDistribution(c.Request().Context(), section),
		})
	}
}

func UomDistributionHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := sectionParam(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"slices": service.UomDistribution(c.Request().Context(), section),
		})
	}
}

func ExportPrescriptionsHandler(service prescriptions.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := sectionParam(c)
		if err != nil {
			return err
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().Header().Set(echo.HeaderContentDisposition,
			`attachment; filename="filtered_nhs_data.csv"`)
		c.Response().WriteHeader(http.StatusOK)
		return service.ExportCSV(c.Request().Context(), c.Response(), section)
	}
}
