// ABOUTME: Handlers for system settings, users and the weekly journal
package web

import (
	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

func (s *Server) handleSystemConfig(c echo.Context) error {
	settings, err := s.stores.System.SystemConfig(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, settings)
}

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.stores.System.Users(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, users)
}

func (s *Server) handleWeeklySummaryList(c echo.Context) error {
	weeks, err := s.weekly.SummaryList(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, weeks)
}

func (s *Server) handleWeekOptions(c echo.Context) error {
	options, err := s.weekly.WeekOptions(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, options)
}

func (s *Server) handleWeeklyDetails(c echo.Context) error {
	details, err := s.weekly.Details(c.Request().Context(), c.Param("weekId"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, details)
}

func (s *Server) handleCreateWeeklyEntry(c echo.Context) error {
	var entry models.WeeklyEntry
	if err := c.Bind(&entry); err != nil {
		return badRequest(c, "invalid request body")
	}
	if entry.Owner == "" {
		entry.Owner = modifier(c)
	}

	createdEntry, err := s.weekly.CreateEntry(c.Request().Context(), entry)
	if err != nil {
		return fail(c, err)
	}
	return created(c, createdEntry)
}

func (s *Server) handleUpdateWeeklyEntry(c echo.Context) error {
	var upd store.WeeklyEntryUpdate
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := s.weekly.UpdateEntry(c.Request().Context(), c.Param("recordId"), upd)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, entry)
}

func (s *Server) handleDeleteWeeklyEntry(c echo.Context) error {
	if err := s.weekly.DeleteEntry(c.Request().Context(), c.Param("recordId")); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}
