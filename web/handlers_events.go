// ABOUTME: Handlers for the typed event log endpoints
// ABOUTME: Mutations go through the event service so audit interactions fire
package web

import (
	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

func (s *Server) handleListEvents(c echo.Context) error {
	events, err := s.stores.Events.EventLogs(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, events)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	event, err := s.stores.Events.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, event)
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	var e models.EventLog
	if err := c.Bind(&e); err != nil {
		return badRequest(c, "invalid request body")
	}
	if e.EventName == "" {
		return badRequest(c, "eventName is required")
	}
	if e.Creator == "" {
		e.Creator = modifier(c)
	}

	result, err := s.eventSvc.Create(c.Request().Context(), e)
	if err != nil {
		return fail(c, err)
	}
	return created(c, result)
}

func (s *Server) handleUpdateEvent(c echo.Context) error {
	var upd store.EventLogUpdate
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := s.eventSvc.Update(c.Request().Context(), c.Param("id"), upd, modifier(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}

func (s *Server) handleDeleteEvent(c echo.Context) error {
	result, err := s.eventSvc.Delete(c.Request().Context(), c.Param("id"), modifier(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}
