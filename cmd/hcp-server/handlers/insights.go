package handlers

import (
	"net/http"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/services/feed"
	"hcpresearch-backend/services/insights"

	"github.com/labstack/echo/v4"
)

type analyzeRequest struct {
	Prompt string `json:"prompt"`
	// "cached" (default, the post cache) or "bigdata"
	Scope string `json:"scope"`
}

func AnalyzeHandler(insightService insights.Service, feedService feed.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req analyzeRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if req.Prompt == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
		}

		ctx := c.Request().Context()

		var posts []platforms.Post
		switch req.Scope {
		case "", "cached":
			res, err := feedService.Cached(ctx, "")
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			posts = res.Posts
		case "bigdata":
			res, err := feedService.BigData(ctx, "")
			if err != nil {
				return echo.NewHTTPError(http.StatusBadGateway, err.Error())
			}
			posts = res.Posts
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "scope must be \"cached\" or \"bigdata\"")
		}

		analysis, err := insightService.Analyze(ctx, posts, req.Prompt)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]string{"analysis": analysis})
	}
}

func GetPromptHandler(service insights.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		prompt, err := service.GetPrompt(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]string{"prompt": prompt})
	}
}

type setPromptRequest struct {
	Prompt string `json:"prompt"`
}

func SetPromptHandler(service insights.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req setPromptRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		err := service.SetPrompt(c.Request().Context(), req.Prompt)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"ok": true})
	}
}
