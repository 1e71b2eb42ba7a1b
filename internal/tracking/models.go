package tracking

import "time"

// Device types reported by the tracking script.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"
	DeviceUnknown = "unknown"
)

// ConversionCategory is the event category that marks a conversion.
const ConversionCategory = "conversion"

// Visit represents one browser session. SessionID is the dedup key: all
// ingestion calls carrying the same session id land on the same row.
type Visit struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	SessionID string     `gorm:"uniqueIndex;size:64;not null"`
	VisitorID string     `gorm:"index;size:64;not null"`
	StartedAt time.Time  `gorm:"index;not null"`
	EndedAt   *time.Time

	Referrer    string `gorm:"type:text"`
	LandingPath string `gorm:"type:text"`

	UTMSource   string `gorm:"column:utm_source;type:text"`
	UTMMedium   string `gorm:"column:utm_medium;type:text"`
	UTMCampaign string `gorm:"column:utm_campaign;type:text"`
	UTMTerm     string `gorm:"column:utm_term;type:text"`
	UTMContent  string `gorm:"column:utm_content;type:text"`

	DeviceType string `gorm:"size:32"`
	Browser    string `gorm:"size:64"`
	OS         string `gorm:"column:os;size:64"`
	Language   string `gorm:"size:16"`

	// Country/City are the effective values used by reports. The client_*
	// and geoip_* columns keep the provenance of each source so a later
	// call can reconcile them.
	Country       string `gorm:"size:64"`
	City          string `gorm:"size:128"`
	ClientCountry string `gorm:"size:64"`
	ClientCity    string `gorm:"size:128"`
	GeoIPCountry  string `gorm:"column:geoip_country;size:64"`
	GeoIPCity     string `gorm:"column:geoip_city;size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageView is one page load within a visit.
type PageView struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	VisitID     uint   `gorm:"index;not null"`
	Path        string `gorm:"type:text"`
	Title       string `gorm:"type:text"`
	DurationMs  *int64
	ScrollDepth *float64
	CreatedAt   time.Time `gorm:"index"`
}

// Event is one custom tracked action. Events whose Category equals
// ConversionCategory feed the conversion reports.
type Event struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	VisitID   uint   `gorm:"index;not null"`
	Category  string `gorm:"index;size:64;not null"`
	Action    string `gorm:"size:64;not null"`
	Label     string `gorm:"size:128"`
	Value     *float64
	Path      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// Performance is one page's web-vitals timing sample.
type Performance struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	VisitID   uint   `gorm:"index;not null"`
	Path      string `gorm:"type:text"`
	TTFBMs    *float64 `gorm:"column:ttfb_ms"`
	FCPMs     *float64 `gorm:"column:fcp_ms"`
	LCPMs     *float64 `gorm:"column:lcp_ms"`
	CLS       *float64 `gorm:"column:cls"`
	CreatedAt time.Time `gorm:"index"`
}

// ErrorLog is one client-side error report.
type ErrorLog struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	VisitID   uint   `gorm:"index;not null"`
	Path      string `gorm:"type:text"`
	Message   string `gorm:"type:text;not null"`
	Stack     string `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}
