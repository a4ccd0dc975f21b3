// ABOUTME: Data models for CRM entities backed by spreadsheet rows
// ABOUTME: Defines Contact, Company, Opportunity, Interaction, EventLog and config records
package models

import "time"

// Contact is a raw business-card lead as captured by the intake process.
// It has no stable id column; RowIndex is its only handle and is valid only
// against the sheet layout it was read from.
type Contact struct {
	RowIndex     int    `json:"rowIndex"`
	CreatedTime  string `json:"createdTime"`
	Name         string `json:"name"`
	Company      string `json:"company"`
	Position     string `json:"position"`
	Department   string `json:"department"`
	Phone        string `json:"phone"`
	Mobile       string `json:"mobile"`
	Email        string `json:"email"`
	Website      string `json:"website"`
	Address      string `json:"address"`
	Confidence   string `json:"confidence"`
	DriveLink    string `json:"driveLink"`
	Status       string `json:"status"`
	UserNickname string `json:"userNickname"`
}

// Contact lifecycle statuses.
const (
	ContactStatusPending  = "pending"
	ContactStatusFiled    = "filed"
	ContactStatusUpgraded = "upgraded"
	ContactStatusArchived = "archived"
)

// ContactListEntry is a filed (promoted) contact with a stable id.
type ContactListEntry struct {
	ContactID      string `json:"contactId"`
	SourceID       string `json:"sourceId"`
	Name           string `json:"name"`
	CompanyID      string `json:"companyId"`
	Department     string `json:"department"`
	Position       string `json:"position"`
	Mobile         string `json:"mobile"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	CreatedTime    string `json:"createdTime"`
	LastUpdateTime string `json:"lastUpdateTime"`
	Creator        string `json:"creator"`
	LastModifier   string `json:"lastModifier"`
}

// LinkedContact is the projection returned for contacts linked to an
// opportunity. DriveLink comes from the heuristic name|company join against
// the raw contact sheet, not from a stored foreign key.
type LinkedContact struct {
	ContactID   string `json:"contactId"`
	SourceID    string `json:"sourceId"`
	Name        string `json:"name"`
	CompanyID   string `json:"companyId"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	Mobile      string `json:"mobile"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
	DriveLink   string `json:"driveLink"`
}

type Company struct {
	CompanyID        string `json:"companyId"`
	CompanyName      string `json:"companyName"`
	CompanyType      string `json:"companyType"`
	Stage            string `json:"stage"`
	EngagementRating string `json:"engagementRating"`
	Industry         string `json:"industry"`
	Profile          string `json:"profile"`
	Website          string `json:"website"`
	Address          string `json:"address"`
	CreatedTime      string `json:"createdTime"`
	LastUpdateTime   string `json:"lastUpdateTime"`
	Creator          string `json:"creator"`
	LastModifier     string `json:"lastModifier"`
}

type Opportunity struct {
	RowIndex       int    `json:"rowIndex"`
	OpportunityID  string `json:"opportunityId"`
	Name           string `json:"name"`
	CompanyID      string `json:"companyId"`
	Stage          string `json:"stage"`
	Assignee       string `json:"assignee"`
	Value          int64  `json:"value"`
	ValueSource    string `json:"valueSource"`
	Specification  string `json:"specification"`
	ParentID       string `json:"parentId"`
	CreatedTime    string `json:"createdTime"`
	LastUpdateTime string `json:"lastUpdateTime"`
	Creator        string `json:"creator"`
	LastModifier   string `json:"lastModifier"`
}

// Opportunity value sources.
const (
	ValueSourceManual        = "manual"
	ValueSourceSpecification = "specification"
)

type Interaction struct {
	RowIndex        int    `json:"rowIndex"`
	InteractionID   string `json:"interactionId"`
	OpportunityID   string `json:"opportunityId"`
	InteractionTime string `json:"interactionTime"`
	EventType       string `json:"eventType"`
	EventTitle      string `json:"eventTitle"`
	ContentSummary  string `json:"contentSummary"`
	Participants    string `json:"participants"`
	NextAction      string `json:"nextAction"`
	AttachmentLink  string `json:"attachmentLink"`
	CalendarEventID string `json:"calendarEventId"`
	Recorder        string `json:"recorder"`
	CreatedTime     string `json:"createdTime"`
	CompanyID       string `json:"companyId"`
}

// Interaction event types that lock the record after creation. Content
// fields of a locked interaction are immutable; only the interaction time
// and the recorder (modifier) column may still change.
const (
	InteractionTypeSystem      = "系統事件"
	InteractionTypeSystemCN    = "系统事件"
	InteractionTypeEventReport = "事件報告"
)

// IsProtectedInteractionType reports whether an interaction event type marks
// a system- or report-generated record.
func IsProtectedInteractionType(eventType string) bool {
	switch eventType {
	case InteractionTypeSystem, InteractionTypeSystemCN, InteractionTypeEventReport:
		return true
	}
	return false
}

// EventType identifies which physical sheet an event log lives in. Each type
// has its own column layout; changing a log's type means moving the row.
const (
	EventTypeGeneral = "general"
	EventTypeIoT     = "iot"
	EventTypeDT      = "dt"
	EventTypeDX      = "dx"
	EventTypeLegacy  = "legacy"
)

// EventLog is a structured note tied to an opportunity or company. Common
// fields apply to every type; the iot_/dt_ groups are only populated for
// rows from the matching sheet.
type EventLog struct {
	RowIndex         int    `json:"rowIndex"`
	EventID          string `json:"eventId"`
	EventType        string `json:"eventType"`
	EventName        string `json:"eventName"`
	OpportunityID    string `json:"opportunityId"`
	CompanyID        string `json:"companyId"`
	Creator          string `json:"creator"`
	CreatedTime      string `json:"createdTime"`
	LastModifiedTime string `json:"lastModifiedTime"`
	LastModifier     string `json:"lastModifier"`

	OurParticipants    string `json:"ourParticipants"`
	ClientParticipants string `json:"clientParticipants"`
	VisitPlace         string `json:"visitPlace"`
	EventContent       string `json:"eventContent"`
	ClientQuestions    string `json:"clientQuestions"`
	ClientIntelligence string `json:"clientIntelligence"`
	EventNotes         string `json:"eventNotes"`

	IoTDeviceScale        string `json:"iot_deviceScale,omitempty"`
	IoTLineFeatures       string `json:"iot_lineFeatures,omitempty"`
	IoTProductionStatus   string `json:"iot_productionStatus,omitempty"`
	IoTStatus             string `json:"iot_iotStatus,omitempty"`
	IoTPainPoints         string `json:"iot_painPoints,omitempty"`
	IoTPainPointDetails   string `json:"iot_painPointDetails,omitempty"`
	IoTPainPointAnalysis  string `json:"iot_painPointAnalysis,omitempty"`
	IoTSystemArchitecture string `json:"iot_systemArchitecture,omitempty"`

	DTProcessingType string `json:"dt_processingType,omitempty"`
	DTIndustry       string `json:"dt_industry,omitempty"`
	DTDeviceScale    string `json:"dt_deviceScale,omitempty"`
}

// OppContactLink associates an opportunity with a filed contact. Rows are
// never deleted; status flips to inactive instead.
type OppContactLink struct {
	RowIndex      int    `json:"rowIndex"`
	LinkID        string `json:"linkId"`
	OpportunityID string `json:"opportunityId"`
	ContactID     string `json:"contactId"`
	CreateTime    string `json:"createTime"`
	Status        string `json:"status"`
	Creator       string `json:"creator"`
}

// Link statuses.
const (
	LinkStatusActive   = "active"
	LinkStatusInactive = "inactive"
)

// ConfigOption is one dropdown option row from the system configuration
// sheet. Value2 carries a per-specification unit price, Value3 a behavior
// flag such as "allow_quantity".
type ConfigOption struct {
	Value  string `json:"value"`
	Note   string `json:"note"`
	Order  int    `json:"order"`
	Color  string `json:"color,omitempty"`
	Value2 string `json:"value2,omitempty"`
	Value3 string `json:"value3,omitempty"`
}

// SystemConfig maps a configuration category name to its ordered options.
type SystemConfig map[string][]ConfigOption

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"displayName"`
}

type WeeklyEntry struct {
	RowIndex       int    `json:"rowIndex"`
	RecordID       string `json:"recordId"`
	WeekID         string `json:"weekId"`
	Date           string `json:"date"`
	Owner          string `json:"owner"`
	Category       string `json:"category"`
	Content        string `json:"content"`
	CreatedTime    string `json:"createdTime"`
	LastUpdateTime string `json:"lastUpdateTime"`
}

type WeeklySummary struct {
	WeekID       string `json:"weekId"`
	SummaryCount int    `json:"summaryCount"`
}

// ParseSheetTime parses a timestamp cell. Sheets hold whatever the writer
// put there; the canonical format is RFC3339 but older rows carry bare
// dates. Reports false for anything unparseable.
func ParseSheetTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EffectiveLastActivity is the derived activity timestamp for an
// opportunity: the later of its own last update and the most recent linked
// interaction time. It is never stored in the sheet.
func EffectiveLastActivity(opp Opportunity, interactions []Interaction) (time.Time, bool) {
	best, ok := ParseSheetTime(opp.LastUpdateTime)
	if !ok {
		best, ok = ParseSheetTime(opp.CreatedTime)
	}
	for _, in := range interactions {
		if in.OpportunityID != opp.OpportunityID {
			continue
		}
		t, tok := ParseSheetTime(in.InteractionTime)
		if !tok {
			continue
		}
		if !ok || t.After(best) {
			best = t
			ok = true
		}
	}
	return best, ok
}
