package handlers

import (
	"net/http"
	"strconv"
	"time"

	"hcpresearch-backend/services/feed"

	"github.com/labstack/echo/v4"
)

func SearchFeedHandler(service feed.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := feed.SearchRequest{
			Platform:         c.QueryParam("platform"),
			Keyword:          c.QueryParam("keyword"),
			SortBy:           c.QueryParam("sort_by"),
			DatePosted:       c.QueryParam("date_posted"),
			Sort:             c.QueryParam("sort"),
			Time:             c.QueryParam("time"),
			Subreddit:        c.QueryParam("subreddit"),
			SubredditKeyword: c.QueryParam("subreddit_keyword"),
		}
		if raw := c.QueryParam("min_engagement"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "min_engagement must be an integer")
			}
			req.MinEngagement = n
		}
		if raw := c.QueryParam("start_date"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			}
			req.StartDate = t
		}

		res, err := service.Search(c.Request().Context(), req)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(http.StatusOK, res)
	}
}

func CachedFeedHandler(service feed.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := service.Cached(c.Request().Context(), c.QueryParam("platform"))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, res)
	}
}

func BigDataHandler(service feed.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := service.BigData(c.Request().Context(), c.QueryParam("q"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(http.StatusOK, res)
	}
}

func FeedMetricsHandler(service feed.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := service.Metrics(c.Request().Context(), c.QueryParam("platform"))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, res)
	}
}
