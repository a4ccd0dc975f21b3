// ABOUTME: Reader and writer for the company sheet
// ABOUTME: Lookups by id or name; classification and profile field updates
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// Company sheet columns.
const (
	colCompanyID = iota
	colCompanyName
	colCompanyType
	colCompanyStage
	colCompanyRating
	colCompanyIndustry
	colCompanyProfile
	colCompanyWebsite
	colCompanyAddress
	colCompanyCreatedTime
	colCompanyUpdateTime
	colCompanyCreator
	colCompanyModifier
)

type companyRowIndexed struct {
	models.Company
	rowIndex int
}

type CompanyReader struct {
	base
}

func NewCompanyReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) *CompanyReader {
	return &CompanyReader{base: newBase(backend, c, cfg, log)}
}

func (r *CompanyReader) companiesIndexed(ctx context.Context) ([]companyRowIndexed, error) {
	rng := r.cfg.Sheets.Companies + "!A:M"

	parse := func(row []string, idx int) companyRowIndexed {
		return companyRowIndexed{
			rowIndex: idx,
			Company: models.Company{
				CompanyID:        cell(row, colCompanyID),
				CompanyName:      cell(row, colCompanyName),
				CompanyType:      cell(row, colCompanyType),
				Stage:            cell(row, colCompanyStage),
				EngagementRating: cell(row, colCompanyRating),
				Industry:         cell(row, colCompanyIndustry),
				Profile:          cell(row, colCompanyProfile),
				Website:          cell(row, colCompanyWebsite),
				Address:          cell(row, colCompanyAddress),
				CreatedTime:      cell(row, colCompanyCreatedTime),
				LastUpdateTime:   cell(row, colCompanyUpdateTime),
				Creator:          cell(row, colCompanyCreator),
				LastModifier:     cell(row, colCompanyModifier),
			},
		}
	}

	return fetchCached(ctx, &r.base, keyCompanies, rng, parse, nil)
}

// Companies returns every company row.
func (r *CompanyReader) Companies(ctx context.Context) ([]models.Company, error) {
	indexed, err := r.companiesIndexed(ctx)
	if err != nil {
		return nil, err
	}
	companies := make([]models.Company, len(indexed))
	for i, c := range indexed {
		companies[i] = c.Company
	}
	return companies, nil
}

// ByID finds a company by its id.
func (r *CompanyReader) ByID(ctx context.Context, companyID string) (*models.Company, error) {
	companies, err := r.Companies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].CompanyID == companyID {
			return &companies[i], nil
		}
	}
	return nil, fmt.Errorf("%w: company %s", ErrNotFound, companyID)
}

// ByName finds a company by its human name (exact, case-insensitive). Some
// endpoints use the name as an alternate lookup key.
func (r *CompanyReader) ByName(ctx context.Context, name string) (*models.Company, error) {
	companies, err := r.Companies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if strings.EqualFold(companies[i].CompanyName, name) {
			return &companies[i], nil
		}
	}
	return nil, fmt.Errorf("%w: company named %q", ErrNotFound, name)
}

// CompanyUpdate carries the updatable company fields; nil leaves a cell
// untouched.
type CompanyUpdate struct {
	CompanyName      *string `json:"companyName,omitempty"`
	CompanyType      *string `json:"companyType,omitempty"`
	Stage            *string `json:"stage,omitempty"`
	EngagementRating *string `json:"engagementRating,omitempty"`
	Industry         *string `json:"industry,omitempty"`
	Profile          *string `json:"profile,omitempty"`
	Website          *string `json:"website,omitempty"`
	Address          *string `json:"address,omitempty"`
}

type CompanyWriter struct {
	base
	reader *CompanyReader
}

func NewCompanyWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, reader *CompanyReader) *CompanyWriter {
	return &CompanyWriter{base: newBase(backend, c, cfg, log), reader: reader}
}

// Create appends a company row with a generated id.
func (w *CompanyWriter) Create(ctx context.Context, company models.Company) (*models.Company, error) {
	if company.CompanyName == "" {
		return nil, fmt.Errorf("companyName is required")
	}

	now := time.Now().Format(time.RFC3339)
	company.CompanyID = newID("COM")
	company.CreatedTime = now
	company.LastUpdateTime = now
	company.LastModifier = company.Creator

	row := []string{
		company.CompanyID, company.CompanyName, company.CompanyType, company.Stage,
		company.EngagementRating, company.Industry, company.Profile, company.Website,
		company.Address, company.CreatedTime, company.LastUpdateTime, company.Creator,
		company.LastModifier,
	}
	if err := w.backend.Append(ctx, w.cfg.Sheets.Companies+"!A:M", [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	w.cache.Invalidate(keyCompanies)
	w.log.Info("company created", zap.String("companyId", company.CompanyID), zap.String("name", company.CompanyName))
	return &company, nil
}

// Update merges the provided fields into the company row, resolving the
// current row position by id at mutation time.
func (w *CompanyWriter) Update(ctx context.Context, companyID string, upd CompanyUpdate, modifier string) error {
	w.cache.Invalidate(keyCompanies)
	indexed, err := w.reader.companiesIndexed(ctx)
	if err != nil {
		return err
	}

	for _, c := range indexed {
		if c.CompanyID != companyID {
			continue
		}

		rng := rowRange(w.cfg.Sheets.Companies, c.rowIndex, colCompanyModifier+1)
		rows, err := w.backend.Read(ctx, rng)
		if err != nil {
			return fmt.Errorf("failed to read company row %d: %w", c.rowIndex, err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: company %s vanished from row %d", ErrNotFound, companyID, c.rowIndex)
		}

		row := rows[0]
		apply := func(col int, v *string) {
			if v != nil {
				row = setCell(row, col, *v)
			}
		}
		apply(colCompanyName, upd.CompanyName)
		apply(colCompanyType, upd.CompanyType)
		apply(colCompanyStage, upd.Stage)
		apply(colCompanyRating, upd.EngagementRating)
		apply(colCompanyIndustry, upd.Industry)
		apply(colCompanyProfile, upd.Profile)
		apply(colCompanyWebsite, upd.Website)
		apply(colCompanyAddress, upd.Address)
		row = setCell(row, colCompanyUpdateTime, time.Now().Format(time.RFC3339))
		row = setCell(row, colCompanyModifier, modifier)

		if err := w.backend.Update(ctx, rng, [][]string{row}); err != nil {
			return fmt.Errorf("failed to update company %s: %w", companyID, err)
		}
		w.cache.Invalidate(keyCompanies)
		w.log.Info("company updated", zap.String("companyId", companyID), zap.String("modifier", modifier))
		return nil
	}
	return fmt.Errorf("%w: company %s", ErrNotFound, companyID)
}
