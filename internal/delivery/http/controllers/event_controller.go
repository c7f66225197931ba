package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"devevents/internal/delivery/http/helpers"
	"devevents/internal/domain"
)

const (
	maxImageSize = 10 << 20
	// maxFormSize leaves room for the text fields next to the largest accepted image.
	maxFormSize   = maxImageSize + 1<<20
	maxFormMemory = 32 << 20
)

// allowedImageTypes maps accepted image content types to the object key extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// slugRegex matches lowercase words joined by single hyphens.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// EventListResponse is the success response envelope for GET /api/events and GET /api/events/{slug}/similar.
type EventListResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventSuccessResponse is the success response envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventDetail is the payload of GET /api/events/{slug}.
type EventDetail struct {
	Event         *domain.Event `json:"event"`
	BookingsCount int           `json:"bookings_count"`
}

// EventDetailResponse is the success response envelope for GET /api/events/{slug}.
type EventDetailResponse struct {
	Data  EventDetail       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteEventRequest is the request body for DELETE /api/events.
type DeleteEventRequest struct {
	ID string `json:"id"`
}

// Validate implements Validator.
func (d DeleteEventRequest) Validate() []string {
	if strings.TrimSpace(d.ID) == "" {
		return []string{"Event ID is required"}
	}
	return nil
}

// UpdateEventRequest is the request body for PATCH /api/events/{id}. Omitted fields are unchanged.
type UpdateEventRequest = domain.EventPatch

type EventController struct {
	Logger   *slog.Logger
	Service  domain.EventService
	Bookings domain.BookingService
	Images   domain.ImageStore
}

func NewEventController(logger *slog.Logger, svc domain.EventService, bookings domain.BookingService, images domain.ImageStore) *EventController {
	return &EventController{
		Logger:   logger,
		Service:  svc,
		Bookings: bookings,
		Images:   images,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Returns every event, newest first.
// @Tags events
// @Produce json
// @Success 200 {object} controllers.EventListResponse
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Multipart form with an image file and the event fields. tags and agenda are JSON arrays of strings. The slug is derived from the title.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Event image (JPEG, PNG, WebP or GIF, at most 10MB)"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param overview formData string true "Overview"
// @Param venue formData string true "Venue"
// @Param location formData string true "Location"
// @Param date formData string true "Date (YYYY-MM-DD)"
// @Param time formData string true "Time"
// @Param mode formData string true "online, offline or hybrid"
// @Param audience formData string true "Audience"
// @Param organizer formData string true "Organizer"
// @Param tags formData string true "JSON array of tags"
// @Param agenda formData string true "JSON array of agenda items"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 413 {object} helpers.APIResponse "error.code: payload_too_large"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodePayloadTooLarge, "File too large. Maximum size is 10MB")
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "Image is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}
	if header.Size > maxImageSize {
		helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodePayloadTooLarge, "File too large. Maximum size is 10MB")
		return
	}

	tags, err := parseJSONList(r.FormValue("tags"), "tags")
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	agenda, err := parseJSONList(r.FormValue("agenda"), "agenda")
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read image")
		return
	}
	key := "events/" + uuid.NewString() + ext
	imageURL, err := c.Images.Upload(r.Context(), key, data, contentType)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "image upload failed", "key", key, "err", err)
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeServiceUnavailable, "image upload failed")
		return
	}

	event := &domain.Event{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Overview:    r.FormValue("overview"),
		Image:       imageURL,
		Venue:       r.FormValue("venue"),
		Location:    r.FormValue("location"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Mode:        r.FormValue("mode"),
		Audience:    r.FormValue("audience"),
		Agenda:      agenda,
		Organizer:   r.FormValue("organizer"),
		Tags:        tags,
	}
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		if delErr := c.Images.Delete(r.Context(), key); delErr != nil {
			c.Logger.WarnContext(r.Context(), "orphaned event image", "key", key, "err", delErr)
		}
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEventBySlug godoc
// @Summary Get an event by slug
// @Description Returns the event and how many bookings it has.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.EventDetailResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /api/events/{slug} [get]
func (c *EventController) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	if !slugRegex.MatchString(slug) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest,
			"Invalid slug format. Slug must be a non-empty string containing only lowercase letters, numbers, and hyphens.")
		return
	}
	event, err := c.Service.GetEventBySlug(r.Context(), slug)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	count, err := c.Bookings.CountBookings(r.Context(), event.ID)
	if err != nil {
		c.Logger.WarnContext(r.Context(), "booking count unavailable", "event_id", event.ID, "err", err)
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventDetail{Event: event, BookingsCount: count})
}

// ListSimilarEvents godoc
// @Summary List similar events
// @Description Events sharing at least one tag with the given event. Unknown slugs yield an empty list.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.EventListResponse
// @Router /api/events/{slug}/similar [get]
func (c *EventController) ListSimilarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListSimilarEvents(r.Context(), r.PathValue("slug"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Updates the given fields. Changing the title regenerates the slug.
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID (UUID)"
// @Param body body controllers.UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /api/events/{id} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), id, req)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags events
// @Accept json
// @Produce json
// @Param body body controllers.DeleteEventRequest true "Event to delete"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /api/events [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	var req DeleteEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), strings.TrimSpace(req.ID)); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

// parseJSONList decodes a form value holding a JSON array of strings. An empty value yields nil
// and is left for event validation to reject.
func parseJSONList(raw, field string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, domain.NewValidationError(field, field+" must be a JSON array of strings")
	}
	return items, nil
}
