package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// BreakdownItem is one labeled bucket in a device breakdown.
type BreakdownItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Devices holds the three independent visit breakdowns of the device report.
type Devices struct {
	DeviceTypes []BreakdownItem `json:"device_types"`
	Browsers    []BreakdownItem `json:"browsers"`
	OS          []BreakdownItem `json:"os"`
}

// GetDevices returns visit counts broken down by device type, browser and
// operating system, each descending by count. Empty values surface as
// "unknown".
func GetDevices(db *gorm.DB, r timeframe.DateRange) (Devices, error) {
	deviceTypes, err := breakdown(db, r, "device_type")
	if err != nil {
		return Devices{}, err
	}
	browsers, err := breakdown(db, r, "browser")
	if err != nil {
		return Devices{}, err
	}
	oses, err := breakdown(db, r, "os")
	if err != nil {
		return Devices{}, err
	}

	return Devices{
		DeviceTypes: deviceTypes,
		Browsers:    browsers,
		OS:          oses,
	}, nil
}

func breakdown(db *gorm.DB, r timeframe.DateRange, column string) ([]BreakdownItem, error) {
	var items []BreakdownItem

	// column is one of three compile-time constants, never user input.
	query := fmt.Sprintf(`
    SELECT
        CASE WHEN %s = '' THEN 'unknown' ELSE %s END AS name,
        COUNT(id) AS count
    FROM visits
    WHERE started_at >= ? AND started_at < ?
    GROUP BY name
    ORDER BY count DESC, name ASC
    `, column, column)

	if err := db.Raw(query, r.Start, r.End).Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("error querying %s breakdown: %w", column, err)
	}
	return items, nil
}
