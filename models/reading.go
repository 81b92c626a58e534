package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"p9e.in/gaugewatch/utils"
)

// Reading represents one water-level submission from a field officer.
// A reading is written once and never updated or deleted.
type Reading struct {
	ID                     string   `gorm:"type:varchar(36);primaryKey"                 json:"id"`
	SiteID                 string   `gorm:"column:site_id;size:64;index;not null"       json:"siteId"`
	SiteName               string   `gorm:"column:site_name;size:255;not null"          json:"siteName"`
	WaterLevelMeters       float64  `gorm:"column:water_level_meters;not null"          json:"waterLevelMeters"`
	Latitude               float64  `gorm:"column:latitude;not null"                    json:"latitude"`
	Longitude              float64  `gorm:"column:longitude;not null"                   json:"longitude"`
	PhotoID                string   `gorm:"column:photo_id;size:64;index;not null"      json:"photoId"`
	SubmittedBy            string   `gorm:"column:submitted_by;size:255;not null"       json:"submittedBy"`
	DistanceFromSiteMeters float64  `gorm:"column:distance_from_site_meters;not null"   json:"distanceFromSiteMeters"`
	IsVerified             bool     `gorm:"column:is_verified;index;not null"           json:"isVerified"`
	OCRConfidence          *float64 `gorm:"column:ocr_confidence"                       json:"ocrConfidence"`

	// Device carries what the client reported about the capture, such as
	// GPS accuracy and user agent. Never used for verification.
	Device datatypes.JSONMap `gorm:"column:device" json:"device,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

// TableName specifies the table name for Reading
func (Reading) TableName() string {
	return "readings"
}

// BeforeCreate hook for Reading
func (r *Reading) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return
}

// Location returns the submitter's device location at capture time.
func (r Reading) Location() utils.Coordinate {
	return utils.Coordinate{Lat: r.Latitude, Lng: r.Longitude}
}
