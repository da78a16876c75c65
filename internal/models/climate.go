// internal/models/climate.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts a bare date or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DatePtr is a convenience for optional date fields.
func DatePtr(d Date) *Date {
	return &d
}

// ClimateProfile is the best-effort growing climate for a location code.
// Every field except LocationCode may be empty.
type ClimateProfile struct {
	LocationCode      string `json:"locationCode"`
	City              string `json:"city,omitempty"`
	Region            string `json:"region,omitempty"`
	Country           string `json:"country,omitempty"`
	HardinessZone     string `json:"hardinessZone,omitempty"`
	LastFrostDate     *Date  `json:"lastFrostDate,omitempty"`
	FirstFrostDate    *Date  `json:"firstFrostDate,omitempty"`
	GrowingSeasonDays *int   `json:"growingSeasonDays,omitempty"`
	ClimateClass      string `json:"climateClass,omitempty"`
}

// Zone returns the hardiness zone or a placeholder for prompts and tips.
func (c ClimateProfile) Zone() string {
	if c.HardinessZone == "" {
		return "unknown"
	}
	return c.HardinessZone
}

// Place renders "City, Region" with whatever parts are known.
func (c ClimateProfile) Place() string {
	switch {
	case c.City != "" && c.Region != "":
		return c.City + ", " + c.Region
	case c.City != "":
		return c.City
	case c.Region != "":
		return c.Region
	default:
		return c.LocationCode
	}
}
