// ABOUTME: Handlers for the interaction audit trail endpoints
package web

import (
	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

func (s *Server) handleListInteractions(c echo.Context) error {
	interactions, err := s.stores.Interactions.Interactions(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, interactions)
}

func (s *Server) handleCreateInteraction(c echo.Context) error {
	var in models.Interaction
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if in.OpportunityID == "" && in.CompanyID == "" {
		return badRequest(c, "opportunityId or companyId is required")
	}
	if in.Recorder == "" {
		in.Recorder = modifier(c)
	}

	createdIn, err := s.stores.IntWriter.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, createdIn)
}

func (s *Server) handleUpdateInteraction(c echo.Context) error {
	var upd store.InteractionUpdate
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.stores.IntWriter.Update(c.Request().Context(), c.Param("id"), upd, modifier(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) handleDeleteInteraction(c echo.Context) error {
	if err := s.stores.IntWriter.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}
