package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/clima/internal/display"
	"github.com/i474232898/clima/internal/store"
	"github.com/i474232898/clima/internal/weather"
	"github.com/i474232898/clima/internal/weather/providers"
)

var validate = validator.New()

const defaultFetchLimit = 20

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, ctrl *display.Controller, journal weather.Journal) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		view := ctrl.View()
		view.RequestURL = providers.RedactURL(view.RequestURL)
		return c.JSON(view)
	})

	v1.Post("/weather/search", func(c *fiber.Ctx) error {
		req, err := parseSearchRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := ctrl.Search(req.City); err != nil {
			if errors.Is(err, display.ErrEmptyCity) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to start search")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "accepted",
			"city":   req.City,
		})
	})

	v1.Post("/weather/location", func(c *fiber.Ctx) error {
		ctrl.RefreshLocation()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "accepted",
		})
	})

	v1.Delete("/weather/alert", func(c *fiber.Ctx) error {
		ctrl.DismissAlert()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/fetches", func(c *fiber.Ctx) error {
		limit, err := parseLimit(c.Query("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		entries := journal.Recent(limit)
		for i := range entries {
			entries[i].URL = providers.RedactURL(entries[i].URL)
		}
		return c.JSON(fiber.Map{
			"fetches": entries,
		})
	})

	v1.Get("/fetches/:id", func(c *fiber.Ctx) error {
		entry, err := journal.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no fetch with requested id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read fetch journal")
		}
		entry.URL = providers.RedactURL(entry.URL)
		return c.JSON(entry)
	})
}

// searchRequest holds the city to search for, from the query string or a JSON body.
type searchRequest struct {
	City string `json:"city" validate:"required,max=200"`
}

func parseSearchRequest(c *fiber.Ctx) (searchRequest, error) {
	var req searchRequest

	// The search outlives the handler; fiber reuses the query buffer.
	req.City = utils.CopyString(c.Query("city"))
	if req.City == "" && len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return req, errors.New("invalid request body")
		}
	}

	if err := validate.Struct(req); err != nil {
		return req, err
	}

	return req, nil
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultFetchLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, errors.New("limit must be an integer between 1 and 1000")
	}
	return n, nil
}
