// ABOUTME: JSON response envelope and error translation for the HTTP API
// ABOUTME: Every endpoint answers {success, data, error}
package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/store"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, envelope{Error: msg})
}

// fail translates store errors: missing records are the client's problem,
// everything else is ours.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	return c.JSON(status, envelope{Error: err.Error()})
}
