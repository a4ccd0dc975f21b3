// ABOUTME: Handlers for raw contacts, the filed contact list and opportunity links
package web

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/store"
)

func (s *Server) handleSearchContacts(c echo.Context) error {
	contacts, err := s.stores.Contacts.SearchContacts(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, contacts)
}

func (s *Server) handleUpdateRawContact(c echo.Context) error {
	rowIndex, err := strconv.Atoi(c.Param("rowIndex"))
	if err != nil || rowIndex <= 1 {
		return badRequest(c, "invalid rowIndex")
	}

	var upd store.ContactUpdate
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.stores.ContactWriter.UpdateRawContact(c.Request().Context(), rowIndex, upd, modifier(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) handleSearchContactList(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	contacts, pagination, err := s.stores.Contacts.SearchContactList(c.Request().Context(), c.QueryParam("query"), page)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, map[string]any{
		"contacts":   contacts,
		"pagination": pagination,
	})
}

func (s *Server) handleLinkedContacts(c echo.Context) error {
	linked, err := s.stores.Contacts.LinkedContacts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, linked)
}

func (s *Server) handleCreateLink(c echo.Context) error {
	var req struct {
		ContactID string `json:"contactId"`
	}
	if err := c.Bind(&req); err != nil || req.ContactID == "" {
		return badRequest(c, "contactId is required")
	}

	link, err := s.stores.Links.CreateLink(c.Request().Context(), c.Param("id"), req.ContactID, modifier(c))
	if err != nil {
		return fail(c, err)
	}
	return created(c, link)
}

func (s *Server) handleDeactivateLink(c echo.Context) error {
	if err := s.stores.Links.DeactivateLink(c.Request().Context(), c.Param("linkId")); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}
