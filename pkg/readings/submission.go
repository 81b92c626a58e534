package readings

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/apex/log"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/sites"
	"p9e.in/gaugewatch/utils"
)

// Photo is the captured gauge image.
type Photo struct {
	Data        []byte
	ContentType string
}

// Candidate is a reading as entered on the device, before it is stored.
// DistanceFromSiteMeters comes from a site resolution done by the caller;
// Submit never resolves the site again.
type Candidate struct {
	SiteID                   string
	SiteName                 string
	WaterLevelMeters         float64
	Location                 utils.Coordinate
	SubmittedBy              string
	DistanceFromSiteMeters   float64
	VerificationRadiusMeters float64 // 0 means use the registry's radius
	Photo                    Photo
	OCRConfidence            *float64
	Device                   map[string]interface{}
}

// NewCandidate fills site identity, distance and radius from a resolved site.
func NewCandidate(site models.ResolvedSite, level float64, location utils.Coordinate, submittedBy string, photo Photo) Candidate {
	return Candidate{
		SiteID:                   site.ID,
		SiteName:                 site.Name,
		WaterLevelMeters:         level,
		Location:                 location,
		SubmittedBy:              submittedBy,
		DistanceFromSiteMeters:   site.DistanceMeters,
		VerificationRadiusMeters: site.VerificationRadiusMeters,
		Photo:                    photo,
	}
}

// ParseWaterLevel parses a water level typed by the field officer.
func ParseWaterLevel(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, invalidInput("water level is required")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, invalidInput("water level %q is not a number", text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidInput("water level must be a finite number")
	}
	return v, nil
}

func (c *Candidate) validate() error {
	if math.IsNaN(c.WaterLevelMeters) || math.IsInf(c.WaterLevelMeters, 0) {
		return invalidInput("water level must be a finite number")
	}
	if strings.TrimSpace(c.SiteID) == "" {
		return invalidInput("site id is required")
	}
	if err := c.Location.Validate(); err != nil {
		return invalidInput("location: %v", err)
	}
	d := c.DistanceFromSiteMeters
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return invalidInput("distance from site must be a non-negative number")
	}
	if len(c.Photo.Data) == 0 {
		return invalidInput("a gauge photo is required")
	}
	if c.OCRConfidence != nil {
		if v := *c.OCRConfidence; math.IsNaN(v) || v < 0 || v > 1 {
			return invalidInput("ocr confidence must be between 0 and 1")
		}
	}
	return nil
}

// SubmissionService validates candidates, decides verification and
// persists the photo and then the reading.
type SubmissionService struct {
	readings  ReadingStore
	photos    PhotoStore
	registry  *sites.Registry
	notifiers []Notifier
	observer  Observer
	logger    log.Interface
}

// Option configures a SubmissionService.
type Option func(*SubmissionService)

// WithNotifier adds a notifier that is called after each stored reading.
func WithNotifier(n Notifier) Option {
	return func(s *SubmissionService) {
		s.notifiers = append(s.notifiers, n)
	}
}

// WithObserver sets the observer receiving submission outcomes.
func WithObserver(o Observer) Option {
	return func(s *SubmissionService) {
		s.observer = o
	}
}

// WithLogger replaces the default apex logger.
func WithLogger(l log.Interface) Option {
	return func(s *SubmissionService) {
		s.logger = l
	}
}

// NewSubmissionService creates a submission service. registry may be nil
// when every candidate carries its own verification radius.
func NewSubmissionService(readings ReadingStore, photos PhotoStore, registry *sites.Registry, opts ...Option) *SubmissionService {
	s := &SubmissionService{
		readings: readings,
		photos:   photos,
		registry: registry,
		logger:   log.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores a reading and its photo. Errors wrap ErrInvalidInput,
// ErrStorageUnavailable or ErrPartialSubmission.
func (s *SubmissionService) Submit(ctx context.Context, c Candidate) (*models.Reading, error) {
	if err := c.validate(); err != nil {
		s.observe(OutcomeInvalidInput, 0)
		return nil, err
	}

	radius, err := s.radiusFor(&c)
	if err != nil {
		s.observe(OutcomeInvalidInput, 0)
		return nil, err
	}

	contentType := c.Photo.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(c.Photo.Data)
	}

	photoID, err := s.photos.Save(ctx, contentType, c.Photo.Data)
	if err != nil {
		s.observe(OutcomeStorageUnavailable, 0)
		return nil, storageUnavailable("save photo", err)
	}

	submittedBy := strings.TrimSpace(c.SubmittedBy)
	if submittedBy == "" {
		submittedBy = "unknown"
	}
	siteName := c.SiteName
	if siteName == "" {
		siteName = c.SiteID
	}

	reading := &models.Reading{
		SiteID:                 c.SiteID,
		SiteName:               siteName,
		WaterLevelMeters:       c.WaterLevelMeters,
		Latitude:               c.Location.Lat,
		Longitude:              c.Location.Lng,
		PhotoID:                photoID,
		SubmittedBy:            submittedBy,
		DistanceFromSiteMeters: c.DistanceFromSiteMeters,
		IsVerified:             c.DistanceFromSiteMeters <= radius,
		OCRConfidence:          c.OCRConfidence,
	}
	if len(c.Device) > 0 {
		reading.Device = c.Device
	}

	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, s.compensate(ctx, photoID, len(c.Photo.Data), err)
	}

	outcome := OutcomeVerified
	if !reading.IsVerified {
		outcome = OutcomeUnverified
	}
	s.observe(outcome, len(c.Photo.Data))

	s.logger.WithFields(log.Fields{
		"reading":  reading.ID,
		"site":     reading.SiteID,
		"level":    reading.WaterLevelMeters,
		"distance": reading.DistanceFromSiteMeters,
		"verified": reading.IsVerified,
	}).Info("reading submitted")

	for _, n := range s.notifiers {
		n.ReadingCreated(ctx, *reading)
	}

	return reading, nil
}

func (s *SubmissionService) radiusFor(c *Candidate) (float64, error) {
	if c.VerificationRadiusMeters > 0 {
		return c.VerificationRadiusMeters, nil
	}
	if s.registry == nil {
		return 0, invalidInput("no verification radius for site %q", c.SiteID)
	}
	site, ok := s.registry.Get(c.SiteID)
	if !ok {
		return 0, invalidInput("site %q is not registered", c.SiteID)
	}
	return site.VerificationRadiusMeters, nil
}

// compensate removes the uploaded photo after the reading write failed.
// If that fails too the photo is orphaned and reported as such.
func (s *SubmissionService) compensate(ctx context.Context, photoID string, size int, createErr error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	delErr := s.photos.Delete(cleanupCtx, photoID)
	if delErr == nil || errors.Is(delErr, ErrNotFound) {
		s.observe(OutcomeStorageUnavailable, 0)
		return storageUnavailable("create reading", createErr)
	}

	s.observe(OutcomePartial, size)
	s.logger.WithFields(log.Fields{
		"photo":        photoID,
		"create_error": createErr.Error(),
		"delete_error": delErr.Error(),
	}).Warn("orphaned photo left behind by failed submission")

	return &PartialSubmissionError{
		PhotoID: photoID,
		Err:     errors.Join(createErr, delErr),
	}
}

func (s *SubmissionService) observe(outcome Outcome, photoBytes int) {
	if s.observer != nil {
		s.observer.ObserveSubmission(outcome, photoBytes)
	}
}
