// ABOUTME: Handlers for the company endpoints
package web

import (
	"github.com/labstack/echo/v4"

	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/store"
)

func (s *Server) handleListCompanies(c echo.Context) error {
	companies, err := s.stores.Companies.Companies(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, companies)
}

func (s *Server) handleGetCompany(c echo.Context) error {
	company, err := s.stores.Companies.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, company)
}

func (s *Server) handleCreateCompany(c echo.Context) error {
	var company models.Company
	if err := c.Bind(&company); err != nil {
		return badRequest(c, "invalid request body")
	}
	if company.CompanyName == "" {
		return badRequest(c, "companyName is required")
	}
	company.Creator = modifier(c)

	createdCompany, err := s.stores.CompanyWriter.Create(c.Request().Context(), company)
	if err != nil {
		return fail(c, err)
	}
	return created(c, createdCompany)
}

func (s *Server) handleUpdateCompany(c echo.Context) error {
	var upd store.CompanyUpdate
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.stores.CompanyWriter.Update(c.Request().Context(), c.Param("id"), upd, modifier(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, nil)
}
