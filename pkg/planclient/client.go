// Package planclient is a Go client for the planner HTTP API plus the
// diff-and-sync engine that pushes whole-board drafts through the per-entity
// endpoints.
package planclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

const (
	versionHeader = "X-Planner-Version"
	intentHeader  = "X-Delete-Intent"
)

// Meta is the refreshed planner state returned by every successful mutation.
// Callers must store it and declare its Version on their next mutation.
type Meta struct {
	WeekStart *string `json:"weekStart"`
	Version   int64   `json:"version"`
}

// ConflictError reports a stale declared version. Meta carries the
// authoritative server state; the caller should reload and retry rather than
// resubmit blindly.
type ConflictError struct {
	Message string
	Meta    Meta
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (server version %d)", e.Message, e.Meta.Version)
}

// APIError is any non-conflict failure response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (http %d)", e.Code, e.Message, e.StatusCode)
}

// Client talks to one planner backend with a fixed bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client. httpClient nil means http.DefaultClient.
func NewClient(baseURL, token string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}, nil
}

type metaEnvelope struct {
	Data struct {
		Meta Meta `json:"meta"`
	} `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, version *int64, intent bool, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if version != nil {
		req.Header.Set(versionHeader, strconv.FormatInt(*version, 10))
	}
	if intent {
		req.Header.Set(intentHeader, "true")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN", Message: "unreadable error response"}
	}

	if resp.StatusCode == http.StatusConflict {
		conflict := &ConflictError{Message: envelope.Error.Message}
		if len(envelope.Error.Details) > 0 {
			var details struct {
				CurrentVersion int64   `json:"currentVersion"`
				WeekStart      *string `json:"weekStart"`
			}
			if err := json.Unmarshal(envelope.Error.Details, &details); err == nil {
				conflict.Meta = Meta{WeekStart: details.WeekStart, Version: details.CurrentVersion}
			}
		}
		return conflict
	}
	return &APIError{StatusCode: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
}

func (c *Client) mutate(ctx context.Context, method, path string, version *int64, intent bool, body any) (Meta, error) {
	var envelope metaEnvelope
	if err := c.do(ctx, method, path, version, intent, body, &envelope); err != nil {
		return Meta{}, err
	}
	return envelope.Data.Meta, nil
}

// State fetches the whole board in one call.
func (c *Client) State(ctx context.Context) (Snapshot, error) {
	var envelope struct {
		Data struct {
			Drivers   []models.Driver         `json:"drivers"`
			Tractors  []models.Tractor        `json:"tractors"`
			Trailers  []models.Trailer        `json:"trailers"`
			Locations []models.Location       `json:"locations"`
			Distances []models.Distance       `json:"distances"`
			Jobs      []models.Job            `json:"jobs"`
			Meta      *models.PlannerMeta     `json:"meta"`
			Settings  *models.PlannerSettings `json:"settings"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/state", nil, false, nil, &envelope); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Meta:      envelope.Data.Meta,
		Settings:  envelope.Data.Settings,
		Drivers:   envelope.Data.Drivers,
		Tractors:  envelope.Data.Tractors,
		Trailers:  envelope.Data.Trailers,
		Locations: envelope.Data.Locations,
		Distances: envelope.Data.Distances,
		Jobs:      envelope.Data.Jobs,
	}, nil
}

func (c *Client) UpdateMeta(ctx context.Context, version *int64, weekStart *string) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/meta", version, false, map[string]any{"weekStart": weekStart})
}

func (c *Client) UpdateSettings(ctx context.Context, version *int64, settings models.PlannerSettings) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/settings", version, false, settingsPayload(settings))
}

func (c *Client) CreateDriver(ctx context.Context, version *int64, driver models.Driver) (Meta, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/drivers", version, false, driverPayload(driver))
}

func (c *Client) UpdateDriver(ctx context.Context, version *int64, driver models.Driver) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/drivers/"+driver.ID.String(), version, false, driverPayload(driver))
}

func (c *Client) DeleteDriver(ctx context.Context, version *int64, id uuid.UUID) (Meta, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/drivers/"+id.String(), version, true, nil)
}

func (c *Client) CreateTractor(ctx context.Context, version *int64, tractor models.Tractor) (Meta, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/tractors", version, false, tractorPayload(tractor))
}

func (c *Client) UpdateTractor(ctx context.Context, version *int64, tractor models.Tractor) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/tractors/"+tractor.ID.String(), version, false, tractorPayload(tractor))
}

func (c *Client) DeleteTractor(ctx context.Context, version *int64, id uuid.UUID) (Meta, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/tractors/"+id.String(), version, true, nil)
}

func (c *Client) CreateTrailer(ctx context.Context, version *int64, trailer models.Trailer) (Meta, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/trailers", version, false, trailerPayload(trailer))
}

func (c *Client) UpdateTrailer(ctx context.Context, version *int64, trailer models.Trailer) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/trailers/"+trailer.ID.String(), version, false, trailerPayload(trailer))
}

func (c *Client) DeleteTrailer(ctx context.Context, version *int64, id uuid.UUID) (Meta, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/trailers/"+id.String(), version, true, nil)
}

func (c *Client) CreateLocation(ctx context.Context, version *int64, location models.Location) (Meta, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/locations", version, false, locationPayload(location))
}

func (c *Client) UpdateLocation(ctx context.Context, version *int64, location models.Location) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/locations/"+location.ID.String(), version, false, locationPayload(location))
}

func (c *Client) DeleteLocation(ctx context.Context, version *int64, id uuid.UUID) (Meta, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/locations/"+id.String(), version, true, nil)
}

func (c *Client) UpsertDistance(ctx context.Context, version *int64, distance models.Distance) (Meta, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/distances/entry", version, false, distancePayload(distance))
}

func (c *Client) DeleteDistance(ctx context.Context, version *int64, from, to string) (Meta, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/distances/entry", version, true, map[string]any{"from": from, "to": to})
}

func (c *Client) ReplaceMatrix(ctx context.Context, version *int64, distances []models.Distance) (Meta, error) {
	entries := make([]map[string]any, 0, len(distances))
	for _, d := range distances {
		entries = append(entries, distancePayload(d))
	}
	return c.mutate(ctx, http.MethodPut, "/api/v1/distances", version, false, map[string]any{"distances": entries})
}

func (c *Client) CreateJob(ctx context.Context, version *int64, job models.Job) (Meta, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/jobs", version, false, jobPayload(job))
}

func (c *Client) UpdateJob(ctx context.Context, version *int64, job models.Job) (Meta, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v1/jobs/"+job.ID.String(), version, false, jobPayload(job))
}

func (c *Client) DeleteJob(ctx context.Context, version *int64, id uuid.UUID) (Meta, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/jobs/"+id.String(), version, true, nil)
}

// BatchUpsertJobs lands every given job in one transaction with a single
// version bump. Deletes are refused by the server; route them through
// DeleteJob.
func (c *Client) BatchUpsertJobs(ctx context.Context, version *int64, jobs []models.Job) (Meta, error) {
	items := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobPayload(job))
	}
	return c.mutate(ctx, http.MethodPost, "/api/v1/jobs/batch", version, false, map[string]any{"jobs": items})
}

// Payload builders strip persistence-managed fields (timestamps, computed
// estimates) so only caller-editable values go over the wire.

func settingsPayload(s models.PlannerSettings) map[string]any {
	return map[string]any{
		"perKmRate":            s.PerKMRate,
		"hourlyDriverCost":     s.HourlyDriverCost,
		"nightPremium":         s.NightPremium,
		"trailerTypeDailyCost": s.TrailerTypeDailyCost,
	}
}

// idOrNil omits the id for entities the caller did not assign one, so the
// server generates it instead of storing the zero UUID.
func idOrNil(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func driverPayload(d models.Driver) map[string]any {
	return map[string]any{
		"id":                   idOrNil(d.ID),
		"name":                 d.Name,
		"canNight":             d.CanNight,
		"sleepsInCab":          d.SleepsInCab,
		"doubleMannedEligible": d.DoubleMannedEligible,
		"weekAvailability":     d.WeekAvailability,
		"leaves":               d.Leaves,
		"rating":               d.Rating,
	}
}

func tractorPayload(t models.Tractor) map[string]any {
	return map[string]any{
		"id":           idOrNil(t.ID),
		"code":         t.Code,
		"plate":        t.Plate,
		"location":     t.Location,
		"doubleManned": t.DoubleManned,
		"typeTags":     t.TypeTags,
	}
}

func trailerPayload(t models.Trailer) map[string]any {
	return map[string]any{
		"id":       idOrNil(t.ID),
		"code":     t.Code,
		"plate":    t.Plate,
		"typeTags": t.TypeTags,
	}
}

func locationPayload(l models.Location) map[string]any {
	return map[string]any{
		"id":   idOrNil(l.ID),
		"name": l.Name,
		"lat":  l.Lat,
		"lng":  l.Lng,
	}
}

func distancePayload(d models.Distance) map[string]any {
	return map[string]any{
		"from": d.From,
		"to":   d.To,
		"km":   d.KM,
	}
}

func jobPayload(j models.Job) map[string]any {
	return map[string]any{
		"id":                 idOrNil(j.ID),
		"date":               j.Date,
		"start":              j.Start,
		"durationHours":      j.DurationHours,
		"slot":               j.Slot,
		"client":             j.Client,
		"pickup":             j.Pickup,
		"dropoff":            j.Dropoff,
		"startPoint":         j.StartPoint,
		"endPoint":           j.EndPoint,
		"allowStartOverride": j.AllowStartOverride,
		"tractorId":          j.TractorID,
		"trailerId":          j.TrailerID,
		"driverIds":          j.DriverIDs,
		"pricingMode":        j.PricingMode,
		"priceValue":         j.PriceValue,
		"notes":              j.Notes,
		"code":               j.Code,
		"color":              j.Color,
	}
}
