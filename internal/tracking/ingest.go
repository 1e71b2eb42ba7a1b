package tracking

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// GeoResolver resolves a client IP to a (country, city) pair. Implementations
// must never fail: unknown or non-public addresses yield empty strings.
type GeoResolver interface {
	Resolve(ip string) (country, city string)
}

// Tracker ingests validated tracking payloads into the event store. Inputs
// are assumed to have passed boundary validation; the tracker only enforces
// the session identity rules.
type Tracker struct {
	db     *gorm.DB
	geo    GeoResolver
	logger *slog.Logger
}

func NewTracker(db *gorm.DB, geo GeoResolver, logger *slog.Logger) *Tracker {
	return &Tracker{db: db, geo: geo, logger: logger}
}

// StartVisitInput carries the fields of an explicit visit start call.
type StartVisitInput struct {
	SessionID string
	VisitorID string
	StartedAt time.Time

	Referrer    string
	LandingPath string

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string

	DeviceType string
	Browser    string
	OS         string
	Language   string

	// Country/City as reported by the client, if any.
	Country string
	City    string

	// ClientIP is only used for geo resolution and is never stored.
	ClientIP string
}

// PageViewInput carries one page load.
type PageViewInput struct {
	SessionID   string
	VisitorID   string
	Path        string
	Title       string
	DurationMs  *int64
	ScrollDepth *float64
	CreatedAt   time.Time
}

// EventInput carries one custom event.
type EventInput struct {
	SessionID string
	VisitorID string
	Category  string
	Action    string
	Label     string
	Value     *float64
	Path      string
	CreatedAt time.Time
}

// PerformanceInput carries one timing sample.
type PerformanceInput struct {
	SessionID string
	VisitorID string
	Path      string
	TTFBMs    *float64
	FCPMs     *float64
	LCPMs     *float64
	CLS       *float64
	CreatedAt time.Time
}

// ErrorInput carries one client error report.
type ErrorInput struct {
	SessionID string
	VisitorID string
	Path      string
	Message   string
	Stack     string
	CreatedAt time.Time
}

// StartVisit creates the visit for an unseen session or refreshes an existing
// one. StartedAt is first-write-wins: a repeated start call never moves the
// original timestamp. Every other field is last-write-wins, except that geo
// fields are only overwritten by non-empty values.
func (t *Tracker) StartVisit(in StartVisitInput) (*Visit, error) {
	now := time.Now().UTC()
	startedAt := in.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	geoCountry, geoCity := "", ""
	if t.geo != nil && in.ClientIP != "" {
		geoCountry, geoCity = t.geo.Resolve(in.ClientIP)
	}
	country := in.Country
	if country == "" {
		country = geoCountry
	}
	city := in.City
	if city == "" {
		city = geoCity
	}

	insert := `
		INSERT INTO visits (
			session_id, visitor_id, started_at,
			referrer, landing_path,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			device_type, browser, os, language,
			country, city, client_country, client_city, geoip_country, geoip_city,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING
	`
	res := t.db.Exec(insert,
		in.SessionID, in.VisitorID, startedAt,
		in.Referrer, in.LandingPath,
		in.UTMSource, in.UTMMedium, in.UTMCampaign, in.UTMTerm, in.UTMContent,
		in.DeviceType, in.Browser, in.OS, in.Language,
		country, city, in.Country, in.City, geoCountry, geoCity,
		now, now,
	)
	if res.Error != nil {
		return nil, fmt.Errorf("error inserting visit: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Session already exists: refresh everything but started_at.
		updates := map[string]any{
			"visitor_id":   in.VisitorID,
			"referrer":     in.Referrer,
			"landing_path": in.LandingPath,
			"utm_source":   in.UTMSource,
			"utm_medium":   in.UTMMedium,
			"utm_campaign": in.UTMCampaign,
			"utm_term":     in.UTMTerm,
			"utm_content":  in.UTMContent,
			"device_type":  in.DeviceType,
			"browser":      in.Browser,
			"os":           in.OS,
			"language":     in.Language,
			"updated_at":   now,
		}
		// Geo arrives late for some sessions; never blank it out.
		if country != "" {
			updates["country"] = country
		}
		if city != "" {
			updates["city"] = city
		}
		if in.Country != "" {
			updates["client_country"] = in.Country
		}
		if in.City != "" {
			updates["client_city"] = in.City
		}
		if geoCountry != "" {
			updates["geoip_country"] = geoCountry
		}
		if geoCity != "" {
			updates["geoip_city"] = geoCity
		}

		if err := t.db.Model(&Visit{}).Where("session_id = ?", in.SessionID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("error updating visit: %w", err)
		}
	}

	var visit Visit
	if err := t.db.Where("session_id = ?", in.SessionID).First(&visit).Error; err != nil {
		return nil, fmt.Errorf("error fetching visit: %w", err)
	}
	return &visit, nil
}

// EndVisit closes a session. Unknown sessions are a no-op.
func (t *Tracker) EndVisit(sessionID string, endedAt time.Time) error {
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	err := t.db.Model(&Visit{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"ended_at": endedAt, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("error ending visit: %w", err)
	}
	return nil
}

// RecordPageView stores one page load, creating the visit implicitly when the
// session has not been seen before.
func (t *Tracker) RecordPageView(in PageViewInput) error {
	visit, err := t.getOrCreateVisit(in.SessionID, in.VisitorID)
	if err != nil {
		return err
	}
	pv := PageView{
		VisitID:     visit.ID,
		Path:        in.Path,
		Title:       in.Title,
		DurationMs:  in.DurationMs,
		ScrollDepth: in.ScrollDepth,
		CreatedAt:   createdAtOrNow(in.CreatedAt),
	}
	if err := t.db.Create(&pv).Error; err != nil {
		return fmt.Errorf("error creating page view: %w", err)
	}
	return nil
}

// RecordEvent stores one custom event.
func (t *Tracker) RecordEvent(in EventInput) error {
	visit, err := t.getOrCreateVisit(in.SessionID, in.VisitorID)
	if err != nil {
		return err
	}
	ev := Event{
		VisitID:   visit.ID,
		Category:  in.Category,
		Action:    in.Action,
		Label:     in.Label,
		Value:     in.Value,
		Path:      in.Path,
		CreatedAt: createdAtOrNow(in.CreatedAt),
	}
	if err := t.db.Create(&ev).Error; err != nil {
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// RecordPerformance stores one web-vitals sample.
func (t *Tracker) RecordPerformance(in PerformanceInput) error {
	visit, err := t.getOrCreateVisit(in.SessionID, in.VisitorID)
	if err != nil {
		return err
	}
	perf := Performance{
		VisitID:   visit.ID,
		Path:      in.Path,
		TTFBMs:    in.TTFBMs,
		FCPMs:     in.FCPMs,
		LCPMs:     in.LCPMs,
		CLS:       in.CLS,
		CreatedAt: createdAtOrNow(in.CreatedAt),
	}
	if err := t.db.Create(&perf).Error; err != nil {
		return fmt.Errorf("error creating performance sample: %w", err)
	}
	return nil
}

// RecordError stores one client error report.
func (t *Tracker) RecordError(in ErrorInput) error {
	visit, err := t.getOrCreateVisit(in.SessionID, in.VisitorID)
	if err != nil {
		return err
	}
	el := ErrorLog{
		VisitID:   visit.ID,
		Path:      in.Path,
		Message:   in.Message,
		Stack:     in.Stack,
		CreatedAt: createdAtOrNow(in.CreatedAt),
	}
	if err := t.db.Create(&el).Error; err != nil {
		return fmt.Errorf("error creating error log: %w", err)
	}
	return nil
}

// getOrCreateVisit fetches the visit for a session, creating a minimal row
// when the session is unseen. The insert uses ON CONFLICT DO NOTHING so two
// concurrent first-contact calls race safely: the loser of the insert simply
// fetches the winner's row. VisitorID is corrected last-write-wins when a
// later call disagrees with the stored value.
func (t *Tracker) getOrCreateVisit(sessionID, visitorID string) (*Visit, error) {
	now := time.Now().UTC()

	insert := `
		INSERT INTO visits (session_id, visitor_id, started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING
	`
	res := t.db.Exec(insert, sessionID, visitorID, now, now, now)
	if res.Error != nil {
		return nil, fmt.Errorf("error inserting visit: %w", res.Error)
	}

	var visit Visit
	if err := t.db.Where("session_id = ?", sessionID).First(&visit).Error; err != nil {
		return nil, fmt.Errorf("error fetching visit: %w", err)
	}

	if res.RowsAffected == 0 && visit.VisitorID != visitorID {
		err := t.db.Model(&Visit{}).
			Where("session_id = ?", sessionID).
			Updates(map[string]any{"visitor_id": visitorID, "updated_at": now}).Error
		if err != nil {
			return nil, fmt.Errorf("error correcting visitor id: %w", err)
		}
		visit.VisitorID = visitorID
	}

	return &visit, nil
}

func createdAtOrNow(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at
}
