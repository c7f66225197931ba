package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Event modes accepted by Validate.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
	ModeHybrid  = "hybrid"
)

// Field limits for events.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxOverviewLength    = 500
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Event is a listed event that visitors can book.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Overview    string    `json:"overview"`
	Image       string    `json:"image"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Mode        string    `json:"mode"`
	Audience    string    `json:"audience"`
	Agenda      []string  `json:"agenda"`
	Organizer   string    `json:"organizer"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventPatch holds the fields of an update. Nil fields are left unchanged.
type EventPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Overview    *string   `json:"overview"`
	Image       *string   `json:"image"`
	Venue       *string   `json:"venue"`
	Location    *string   `json:"location"`
	Date        *string   `json:"date"`
	Time        *string   `json:"time"`
	Mode        *string   `json:"mode"`
	Audience    *string   `json:"audience"`
	Agenda      *[]string `json:"agenda"`
	Organizer   *string   `json:"organizer"`
	Tags        *[]string `json:"tags"`
}

// Prepare trims every field and derives slug, date and time from their inputs.
// It runs before every insert.
func (e *Event) Prepare() {
	e.trim()
	e.Slug = GenerateSlug(e.Title)
	e.Date = NormalizeDate(e.Date)
	e.Time = NormalizeTime(e.Time)
}

// Apply copies the set fields of p onto e. The slug is regenerated only when the title
// changed or the slug is empty; date and time are normalized only when they changed.
func (e *Event) Apply(p EventPatch) {
	titleChanged := p.Title != nil && strings.TrimSpace(*p.Title) != e.Title
	setString(&e.Title, p.Title)
	setString(&e.Description, p.Description)
	setString(&e.Overview, p.Overview)
	setString(&e.Image, p.Image)
	setString(&e.Venue, p.Venue)
	setString(&e.Location, p.Location)
	setString(&e.Mode, p.Mode)
	setString(&e.Audience, p.Audience)
	setString(&e.Organizer, p.Organizer)
	if p.Agenda != nil {
		e.Agenda = cleanList(*p.Agenda, false)
	}
	if p.Tags != nil {
		e.Tags = cleanList(*p.Tags, true)
	}
	if p.Date != nil {
		e.Date = NormalizeDate(*p.Date)
	}
	if p.Time != nil {
		e.Time = NormalizeTime(*p.Time)
	}
	if titleChanged || e.Slug == "" {
		e.Slug = GenerateSlug(e.Title)
	}
}

// Validate checks every event field and returns a *ValidationError naming the failing fields.
func (e *Event) Validate() error {
	err := validation.ValidateStruct(e,
		validation.Field(&e.Title,
			validation.Required.Error("event title is required"),
			validation.RuneLength(0, MaxTitleLength).Error("event title must be less than 100 characters"),
		),
		validation.Field(&e.Slug, validation.Required.Error("event slug could not be derived from the title")),
		validation.Field(&e.Description,
			validation.Required.Error("event description is required"),
			validation.RuneLength(0, MaxDescriptionLength).Error("event description must be less than 1000 characters"),
		),
		validation.Field(&e.Overview,
			validation.Required.Error("event overview is required"),
			validation.RuneLength(0, MaxOverviewLength).Error("event overview must be less than 500 characters"),
		),
		validation.Field(&e.Image, validation.Required.Error("event image is required")),
		validation.Field(&e.Venue, validation.Required.Error("event venue is required")),
		validation.Field(&e.Location, validation.Required.Error("event location is required")),
		validation.Field(&e.Date,
			validation.Required.Error("event date is required"),
			validation.Match(datePattern).Error("date must be in YYYY-MM-DD format"),
		),
		validation.Field(&e.Time, validation.Required.Error("event time is required")),
		validation.Field(&e.Mode,
			validation.Required.Error("event mode is required"),
			validation.In(ModeOnline, ModeOffline, ModeHybrid).Error("mode must be one of: online, offline, hybrid"),
		),
		validation.Field(&e.Audience, validation.Required.Error("event audience is required")),
		validation.Field(&e.Agenda, validation.Required.Error("agenda must contain at least one item")),
		validation.Field(&e.Organizer, validation.Required.Error("event organizer is required")),
		validation.Field(&e.Tags, validation.Required.Error("tags must be a non-empty array")),
	)
	return asValidationError(err)
}

func (e *Event) trim() {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Overview = strings.TrimSpace(e.Overview)
	e.Image = strings.TrimSpace(e.Image)
	e.Venue = strings.TrimSpace(e.Venue)
	e.Location = strings.TrimSpace(e.Location)
	e.Mode = strings.TrimSpace(e.Mode)
	e.Audience = strings.TrimSpace(e.Audience)
	e.Organizer = strings.TrimSpace(e.Organizer)
	e.Agenda = cleanList(e.Agenda, false)
	e.Tags = cleanList(e.Tags, true)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// cleanList trims items and drops blanks. Tags are a set, so duplicates are dropped too.
func cleanList(items []string, unique bool) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if unique {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}

// asValidationError converts ozzo-validation field errors into a *ValidationError.
// Internal rule errors pass through unchanged.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	// List returns every event, newest first.
	List(ctx context.Context) ([]*Event, error)
	// ListByTags returns events sharing at least one of tags, excluding excludeID.
	ListByTags(ctx context.Context, tags []string, excludeID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	// Delete removes the event and returns it as it was before deletion.
	Delete(ctx context.Context, id string) (*Event, error)
}

// EventService defines event operations used by the HTTP layer.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	// ListSimilarEvents never fails; an unknown slug yields an empty slice.
	ListSimilarEvents(ctx context.Context, slug string) ([]*Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
