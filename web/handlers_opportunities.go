// ABOUTME: Handlers for opportunities, their activity view and value computation
package web

import (
	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

func (s *Server) handleListOpportunities(c echo.Context) error {
	opportunities, err := s.stores.Opportunities.WithActivity(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, opportunities)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	opp, err := s.stores.Opportunities.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, opp)
}

func (s *Server) handleCreateOpportunity(c echo.Context) error {
	var opp models.Opportunity
	if err := c.Bind(&opp); err != nil {
		return badRequest(c, "invalid request body")
	}
	if opp.Name == "" {
		return badRequest(c, "name is required")
	}
	opp.Creator = modifier(c)

	createdOpp, err := s.stores.OppWriter.Create(c.Request().Context(), opp)
	if err != nil {
		return fail(c, err)
	}
	return created(c, createdOpp)
}

func (s *Server) handleUpdateOpportunity(c echo.Context) error {
	var upd store.OpportunityUpdate
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.stores.OppWriter.Update(c.Request().Context(), c.Param("id"), upd, modifier(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) handleDeleteOpportunity(c echo.Context) error {
	if err := s.stores.OppWriter.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}

func (s *Server) handleOpportunityChildren(c echo.Context) error {
	children, err := s.stores.Opportunities.Children(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, children)
}

func (s *Server) handleOpportunityInteractions(c echo.Context) error {
	interactions, err := s.stores.Interactions.ByOpportunity(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, interactions)
}

func (s *Server) handleOpportunityEvents(c echo.Context) error {
	events, err := s.stores.Events.ByOpportunity(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, events)
}

// handleComputeValue prices a specification item list against the orderable
// specification settings without touching any opportunity.
func (s *Server) handleComputeValue(c echo.Context) error {
	var req struct {
		Items []store.SpecItem `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Items) == 0 {
		return badRequest(c, "items are required")
	}

	settings, err := s.stores.System.SystemConfig(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}

	value, err := store.ComputeSpecificationValue(settings, req.Items)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return ok(c, map[string]any{"value": value})
}
