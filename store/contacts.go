// ABOUTME: Readers and writers for raw contacts, filed contacts and opportunity links
// ABOUTME: Includes the heuristic name|company drive-link join for linked contacts
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/models"
	"github.com/wllin/sheetcrm/sheets"
)

// Raw contact sheet columns.
const (
	colContactTime = iota
	colContactName
	colContactCompany
	colContactPosition
	colContactDepartment
	colContactPhone
	colContactMobile
	colContactEmail
	colContactWebsite
	colContactAddress
	colContactConfidence
	colContactDriveLink
	colContactStatus
	colContactNickname
)

// Opportunity-contact link sheet columns.
const (
	colLinkID = iota
	colLinkOpportunityID
	colLinkContactID
	colLinkCreateTime
	colLinkStatus
	colLinkCreator
)

// ContactReader reads everything contact-shaped: raw business-card leads,
// the filed contact list, and the opportunity-contact link table.
type ContactReader struct {
	base
	companies *CompanyReader
}

func NewContactReader(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, companies *CompanyReader) *ContactReader {
	return &ContactReader{base: newBase(backend, c, cfg, log), companies: companies}
}

// Contacts returns the raw leads, newest first. Rows with unparseable
// created times sort last. No filtering happens here so that the
// linked-contact join can see every row.
func (r *ContactReader) Contacts(ctx context.Context, limit int) ([]models.Contact, error) {
	rng := r.cfg.Sheets.Contacts + "!A:Y"

	parse := func(row []string, idx int) models.Contact {
		return models.Contact{
			RowIndex:     idx,
			CreatedTime:  cell(row, colContactTime),
			Name:         cell(row, colContactName),
			Company:      cell(row, colContactCompany),
			Position:     cell(row, colContactPosition),
			Department:   cell(row, colContactDepartment),
			Phone:        cell(row, colContactPhone),
			Mobile:       cell(row, colContactMobile),
			Email:        cell(row, colContactEmail),
			Website:      cell(row, colContactWebsite),
			Address:      cell(row, colContactAddress),
			Confidence:   cell(row, colContactConfidence),
			DriveLink:    cell(row, colContactDriveLink),
			Status:       cell(row, colContactStatus),
			UserNickname: cell(row, colContactNickname),
		}
	}

	less := func(a, b models.Contact) bool {
		ta, okA := models.ParseSheetTime(a.CreatedTime)
		tb, okB := models.ParseSheetTime(b.CreatedTime)
		if !okB {
			return okA
		}
		if !okA {
			return false
		}
		return ta.After(tb)
	}

	contacts, err := fetchCached(ctx, &r.base, keyContacts, rng, parse, less)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(contacts) > limit {
		contacts = contacts[:limit]
	}
	return contacts, nil
}

// ContactList returns the filed contacts.
func (r *ContactReader) ContactList(ctx context.Context) ([]models.ContactListEntry, error) {
	rng := r.cfg.Sheets.ContactList + "!A:M"

	parse := func(row []string, idx int) models.ContactListEntry {
		return models.ContactListEntry{
			ContactID:      cell(row, 0),
			SourceID:       cell(row, 1),
			Name:           cell(row, 2),
			CompanyID:      cell(row, 3),
			Department:     cell(row, 4),
			Position:       cell(row, 5),
			Mobile:         cell(row, 6),
			Phone:          cell(row, 7),
			Email:          cell(row, 8),
			CreatedTime:    cell(row, 9),
			LastUpdateTime: cell(row, 10),
			Creator:        cell(row, 11),
			LastModifier:   cell(row, 12),
		}
	}

	return fetchCached(ctx, &r.base, keyContactList, rng, parse, nil)
}

// OppContactLinks returns every opportunity-contact association, active or
// not.
func (r *ContactReader) OppContactLinks(ctx context.Context) ([]models.OppContactLink, error) {
	rng := r.cfg.Sheets.OppContactLinks + "!A:F"

	parse := func(row []string, idx int) models.OppContactLink {
		return models.OppContactLink{
			RowIndex:      idx,
			LinkID:        cell(row, colLinkID),
			OpportunityID: cell(row, colLinkOpportunityID),
			ContactID:     cell(row, colLinkContactID),
			CreateTime:    cell(row, colLinkCreateTime),
			Status:        cell(row, colLinkStatus),
			Creator:       cell(row, colLinkCreator),
		}
	}

	return fetchCached(ctx, &r.base, keyOppContactLinks, rng, parse, nil)
}

// normalizeJoinKey lowercases and trims a join key component. The raw
// contact sheet and the filed contact list share no reliable identifier, so
// the drive-link join runs on name|company.
func normalizeJoinKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LinkedContacts returns the filed contacts actively linked to an
// opportunity, each enriched with its company name and the business-card
// drive link resolved through the normalized name|company lookup (first
// match wins on duplicates).
func (r *ContactReader) LinkedContacts(ctx context.Context, opportunityID string) ([]models.LinkedContact, error) {
	var (
		links     []models.OppContactLink
		entries   []models.ContactListEntry
		companies []models.Company
		raw       []models.Contact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { links, err = r.OppContactLinks(gctx); return })
	g.Go(func() (err error) { entries, err = r.ContactList(gctx); return })
	g.Go(func() (err error) { companies, err = r.companies.Companies(gctx); return })
	g.Go(func() (err error) { raw, err = r.Contacts(gctx, 0); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch linked contact datasets: %w", err)
	}

	linkedIDs := make(map[string]bool)
	for _, link := range links {
		if link.OpportunityID == opportunityID && link.Status == models.LinkStatusActive {
			linkedIDs[link.ContactID] = true
		}
	}
	if len(linkedIDs) == 0 {
		return []models.LinkedContact{}, nil
	}

	companyNames := make(map[string]string, len(companies))
	for _, c := range companies {
		companyNames[c.CompanyID] = c.CompanyName
	}

	driveLinks := make(map[string]string)
	for _, pc := range raw {
		if pc.Name == "" || pc.Company == "" || pc.DriveLink == "" {
			continue
		}
		key := normalizeJoinKey(pc.Name) + "|" + normalizeJoinKey(pc.Company)
		if _, seen := driveLinks[key]; !seen {
			driveLinks[key] = pc.DriveLink
		}
	}

	var result []models.LinkedContact
	for _, entry := range entries {
		if !linkedIDs[entry.ContactID] {
			continue
		}

		companyName := companyNames[entry.CompanyID]
		driveLink := ""
		if entry.Name != "" && companyName != "" {
			driveLink = driveLinks[normalizeJoinKey(entry.Name)+"|"+normalizeJoinKey(companyName)]
		}
		if companyName == "" {
			companyName = entry.CompanyID
		}

		result = append(result, models.LinkedContact{
			ContactID:   entry.ContactID,
			SourceID:    entry.SourceID,
			Name:        entry.Name,
			CompanyID:   entry.CompanyID,
			Department:  entry.Department,
			Position:    entry.Position,
			Mobile:      entry.Mobile,
			Phone:       entry.Phone,
			Email:       entry.Email,
			CompanyName: companyName,
			DriveLink:   driveLink,
		})
	}
	return result, nil
}

// SearchContacts filters the raw leads by a case-insensitive substring on
// name or company. Rows with neither field are dropped.
func (r *ContactReader) SearchContacts(ctx context.Context, query string) ([]models.Contact, error) {
	contacts, err := r.Contacts(ctx, 0)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(query)
	var result []models.Contact
	for _, c := range contacts {
		if c.Name == "" && c.Company == "" {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(strings.ToLower(c.Company), term) {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

// FiledContact is a contact-list entry with its company name resolved.
type FiledContact struct {
	models.ContactListEntry
	CompanyName string `json:"companyName"`
}

// Pagination describes one page of a paginated result.
type Pagination struct {
	Current    int  `json:"current"`
	Total      int  `json:"total"`
	TotalItems int  `json:"totalItems"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// SearchContactList searches the filed contacts by name or company name and
// paginates the result.
func (r *ContactReader) SearchContactList(ctx context.Context, query string, page int) ([]FiledContact, Pagination, error) {
	var (
		entries   []models.ContactListEntry
		companies []models.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { entries, err = r.ContactList(gctx); return })
	g.Go(func() (err error) { companies, err = r.companies.Companies(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, Pagination{}, err
	}

	companyNames := make(map[string]string, len(companies))
	for _, c := range companies {
		companyNames[c.CompanyID] = c.CompanyName
	}

	term := strings.ToLower(query)
	var filed []FiledContact
	for _, entry := range entries {
		companyName := companyNames[entry.CompanyID]
		if companyName == "" {
			companyName = entry.CompanyID
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(entry.Name), term) &&
			!strings.Contains(strings.ToLower(companyName), term) {
			continue
		}
		filed = append(filed, FiledContact{ContactListEntry: entry, CompanyName: companyName})
	}

	if page < 1 {
		page = 1
	}
	pageSize := r.cfg.ContactsPerPage
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filed) {
		start = len(filed)
	}
	if end > len(filed) {
		end = len(filed)
	}

	totalPages := (len(filed) + pageSize - 1) / pageSize
	p := Pagination{
		Current:    page,
		Total:      totalPages,
		TotalItems: len(filed),
		HasNext:    end < len(filed),
		HasPrev:    page > 1,
	}
	return filed[start:end], p, nil
}

// ContactUpdate is the set of raw-contact fields an update may touch. Nil
// pointers leave the stored cell as is.
type ContactUpdate struct {
	Name       *string `json:"name,omitempty"`
	Company    *string `json:"company,omitempty"`
	Position   *string `json:"position,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Mobile     *string `json:"mobile,omitempty"`
	Email      *string `json:"email,omitempty"`
	Website    *string `json:"website,omitempty"`
	Address    *string `json:"address,omitempty"`
	DriveLink  *string `json:"driveLink,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// ContactWriter mutates the raw contact sheet. Raw contacts have no id
// column, so updates address rows by physical position; they are never hard
// deleted, only status-transitioned.
type ContactWriter struct {
	base
}

func NewContactWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger) *ContactWriter {
	return &ContactWriter{base: newBase(backend, c, cfg, log)}
}

// UpdateRawContact merges the provided fields into the row at rowIndex.
func (w *ContactWriter) UpdateRawContact(ctx context.Context, rowIndex int, upd ContactUpdate, modifier string) error {
	if rowIndex <= 1 {
		return fmt.Errorf("invalid rowIndex %d", rowIndex)
	}

	rng := rowRange(w.cfg.Sheets.Contacts, rowIndex, colContactNickname+1)
	rows, err := w.backend.Read(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to read contact row %d: %w", rowIndex, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("%w: no contact at row %d", ErrNotFound, rowIndex)
	}

	row := rows[0]
	apply := func(col int, v *string) {
		if v != nil {
			row = setCell(row, col, *v)
		}
	}
	apply(colContactName, upd.Name)
	apply(colContactCompany, upd.Company)
	apply(colContactPosition, upd.Position)
	apply(colContactDepartment, upd.Department)
	apply(colContactPhone, upd.Phone)
	apply(colContactMobile, upd.Mobile)
	apply(colContactEmail, upd.Email)
	apply(colContactWebsite, upd.Website)
	apply(colContactAddress, upd.Address)
	apply(colContactDriveLink, upd.DriveLink)
	apply(colContactStatus, upd.Status)

	if err := w.backend.Update(ctx, rng, [][]string{row}); err != nil {
		return fmt.Errorf("failed to update contact row %d: %w", rowIndex, err)
	}

	w.cache.Invalidate(keyContacts)
	w.log.Info("raw contact updated", zap.Int("rowIndex", rowIndex), zap.String("modifier", modifier))
	return nil
}

// LinkWriter mutates the opportunity-contact link table. Links are soft
// deleted by flipping status to inactive.
type LinkWriter struct {
	base
	reader *ContactReader
}

func NewLinkWriter(backend sheets.Backend, c *cache.Cache, cfg *config.Config, log *zap.Logger, reader *ContactReader) *LinkWriter {
	return &LinkWriter{base: newBase(backend, c, cfg, log), reader: reader}
}

// CreateLink associates a filed contact with an opportunity.
func (w *LinkWriter) CreateLink(ctx context.Context, opportunityID, contactID, creator string) (*models.OppContactLink, error) {
	if opportunityID == "" || contactID == "" {
		return nil, fmt.Errorf("opportunityID and contactID are required")
	}

	link := models.OppContactLink{
		LinkID:        uuid.New().String(),
		OpportunityID: opportunityID,
		ContactID:     contactID,
		CreateTime:    time.Now().Format(time.RFC3339),
		Status:        models.LinkStatusActive,
		Creator:       creator,
	}
	row := []string{link.LinkID, link.OpportunityID, link.ContactID, link.CreateTime, link.Status, link.Creator}

	if err := w.backend.Append(ctx, w.cfg.Sheets.OppContactLinks+"!A:F", [][]string{row}); err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	w.cache.Invalidate(keyOppContactLinks)
	w.log.Info("opportunity-contact link created",
		zap.String("linkId", link.LinkID),
		zap.String("opportunityId", opportunityID),
		zap.String("contactId", contactID))
	return &link, nil
}

// DeactivateLink soft-deletes a link by id. The row position is resolved
// fresh at mutation time; caller-supplied row indices are never trusted.
func (w *LinkWriter) DeactivateLink(ctx context.Context, linkID string) error {
	w.cache.Invalidate(keyOppContactLinks)
	links, err := w.reader.OppContactLinks(ctx)
	if err != nil {
		return err
	}

	for _, link := range links {
		if link.LinkID != linkID {
			continue
		}
		rng := rowRange(w.cfg.Sheets.OppContactLinks, link.RowIndex, colLinkCreator+1)
		row := []string{link.LinkID, link.OpportunityID, link.ContactID, link.CreateTime, models.LinkStatusInactive, link.Creator}
		if err := w.backend.Update(ctx, rng, [][]string{row}); err != nil {
			return fmt.Errorf("failed to deactivate link %s: %w", linkID, err)
		}
		w.cache.Invalidate(keyOppContactLinks)
		w.log.Info("opportunity-contact link deactivated", zap.String("linkId", linkID))
		return nil
	}
	return fmt.Errorf("%w: link %s", ErrNotFound, linkID)
}
