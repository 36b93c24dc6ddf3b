package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/activities"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/validation"
	"github.com/eventhub/backend/pkg/queue"
)

// UserStore is the identity surface a bulk load needs.
type UserStore interface {
	GetOrCreate(ctx context.Context, username string, defaults models.UserDefaults) (*models.User, bool, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	SetPassword(ctx context.Context, id uuid.UUID, plain string) error
}

// ProfileStore saves profiles; saving runs the group sync.
type ProfileStore interface {
	Save(ctx context.Context, p *models.Profile) error
}

// EventStore finds or creates events by name.
type EventStore interface {
	GetByName(ctx context.Context, name string) (*models.Event, error)
	CreateIfAbsent(ctx context.Context, e *models.Event) (*models.Event, bool, error)
}

// ActivityStore finds or creates activities by title.
type ActivityStore interface {
	CreateIfAbsent(ctx context.Context, a *models.Activity) (*models.Activity, bool, error)
}

// RegistrationStore registers a pair unless it already exists.
type RegistrationStore interface {
	CreateIfAbsent(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error)
}

// Importer applies bulk documents. Every step is an upsert, so re-running a document is safe.
type Importer struct {
	users         UserStore
	profiles      ProfileStore
	events        EventStore
	activities    ActivityStore
	registrations RegistrationStore
	logger        *zap.Logger
}

// New creates an importer.
func New(users UserStore, profiles ProfileStore, events EventStore, activities ActivityStore, registrations RegistrationStore, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		users:         users,
		profiles:      profiles,
		events:        events,
		activities:    activities,
		registrations: registrations,
		logger:        logger,
	}
}

// Apply loads doc. Bad rows are reported in the result and do not stop the load;
// an unavailable dependency aborts it with an error.
func (im *Importer) Apply(ctx context.Context, doc *Document) (*Result, error) {
	res := &Result{Errors: []RowError{}}
	run := &run{im: im, res: res, users: map[string]uuid.UUID{}, events: map[string]uuid.UUID{}}

	for i, row := range doc.Users {
		if err := run.rowErr("user", i, row.Username, &res.Users, run.user(ctx, row, &res.Users)); err != nil {
			return res, err
		}
	}
	for i, row := range doc.Events {
		if err := run.rowErr("event", i, row.Name, &res.Events, run.event(ctx, row, &res.Events)); err != nil {
			return res, err
		}
	}
	for i, row := range doc.Activities {
		if err := run.rowErr("activity", i, row.Title, &res.Activities, run.activity(ctx, row, &res.Activities)); err != nil {
			return res, err
		}
	}
	for i, row := range doc.Registrations {
		key := row.Username + "@" + row.Event
		if err := run.rowErr("registration", i, key, &res.Registrations, run.registration(ctx, row, &res.Registrations)); err != nil {
			return res, err
		}
	}

	im.logger.Info("bulk import applied",
		zap.Any("users", res.Users),
		zap.Any("events", res.Events),
		zap.Any("activities", res.Activities),
		zap.Any("registrations", res.Registrations),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

// Process executes one bulk_import job.
func (im *Importer) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.BulkImportPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}
	var doc Document
	if err := json.Unmarshal(payload.Document, &doc); err != nil {
		return fmt.Errorf("decode bulk document: %w", err)
	}
	_, err := im.Apply(ctx, &doc)
	return err
}

// run carries lookups resolved earlier in the same load.
type run struct {
	im     *Importer
	res    *Result
	users  map[string]uuid.UUID
	events map[string]uuid.UUID
}

func (r *run) rowErr(kind string, i int, key string, counts *Counts, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrDependencyUnavailable) {
		return fmt.Errorf("%s row %d: %w", kind, i, err)
	}
	counts.Failed++
	r.res.Errors = append(r.res.Errors, RowError{Kind: kind, Row: i, Key: key, Error: err.Error()})
	r.im.logger.Warn("bulk import row rejected", zap.String("kind", kind), zap.Int("row", i), zap.Error(err))
	return nil
}

func (r *run) user(ctx context.Context, row UserRow, counts *Counts) error {
	role, err := models.ParseRole(row.Role)
	if err != nil {
		return err
	}
	defaults := models.UserDefaults{Email: strings.TrimSpace(row.Email)}
	if fields := strings.Fields(row.Name); len(fields) > 0 {
		defaults.FirstName = fields[0]
	}
	u, created, err := r.im.users.GetOrCreate(ctx, row.Username, defaults)
	if err != nil {
		return err
	}
	if created && row.Password != "" {
		if err := r.im.users.SetPassword(ctx, u.ID, row.Password); err != nil {
			return err
		}
	}
	p := &models.Profile{UserID: u.ID, Role: role}
	if phone := strings.TrimSpace(row.Phone); phone != "" {
		p.Phone = &phone
	}
	if err := r.im.profiles.Save(ctx, p); err != nil {
		return err
	}
	r.users[u.Username] = u.ID
	if created {
		counts.Created++
	} else {
		counts.Updated++
	}
	return nil
}

func (r *run) event(ctx context.Context, row EventRow, counts *Counts) error {
	e := &models.Event{
		Name:        strings.TrimSpace(row.Name),
		Description: row.Description,
		Location:    row.Location,
	}
	starts, err := validation.ParseTime("starts_at", row.StartsAt)
	if err != nil {
		return err
	}
	ends, err := validation.ParseTime("ends_at", row.EndsAt)
	if err != nil {
		return err
	}
	if starts != nil {
		e.StartsAt = *starts
	}
	if ends != nil {
		e.EndsAt = *ends
	}
	if err := events.Validate(e); err != nil {
		return err
	}
	got, created, err := r.im.events.CreateIfAbsent(ctx, e)
	if err != nil {
		return err
	}
	r.events[got.Name] = got.ID
	if created {
		counts.Created++
	} else {
		counts.Skipped++
	}
	return nil
}

func (r *run) activity(ctx context.Context, row ActivityRow, counts *Counts) error {
	t, err := models.ParseActivityType(row.Type)
	if err != nil {
		return err
	}
	eventID, err := r.eventID(ctx, row.Event)
	if err != nil {
		return err
	}
	a := &models.Activity{
		EventID:     eventID,
		Title:       strings.TrimSpace(row.Title),
		Description: row.Description,
		Type:        t,
	}
	if a.StartsAt, err = validation.ParseTime("starts_at", row.StartsAt); err != nil {
		return err
	}
	if a.EndsAt, err = validation.ParseTime("ends_at", row.EndsAt); err != nil {
		return err
	}
	if strings.TrimSpace(row.Responsible) != "" {
		userID, err := r.userID(ctx, row.Responsible)
		if err != nil {
			return err
		}
		a.ResponsibleID = &userID
	}
	if err := activities.Validate(a); err != nil {
		return err
	}
	_, created, err := r.im.activities.CreateIfAbsent(ctx, a)
	if err != nil {
		return err
	}
	if created {
		counts.Created++
	} else {
		counts.Skipped++
	}
	return nil
}

func (r *run) registration(ctx context.Context, row RegistrationRow, counts *Counts) error {
	status, err := models.ParseRegistrationStatus(row.Status)
	if err != nil {
		return err
	}
	userID, err := r.userID(ctx, row.Username)
	if err != nil {
		return err
	}
	eventID, err := r.eventID(ctx, row.Event)
	if err != nil {
		return err
	}
	_, created, err := r.im.registrations.CreateIfAbsent(ctx, &models.Registration{UserID: userID, EventID: eventID, Status: status})
	if err != nil {
		return err
	}
	if created {
		counts.Created++
	} else {
		counts.Skipped++
	}
	return nil
}

func (r *run) userID(ctx context.Context, username string) (uuid.UUID, error) {
	username = strings.TrimSpace(username)
	if id, ok := r.users[username]; ok {
		return id, nil
	}
	u, err := r.im.users.GetByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, err
	}
	r.users[username] = u.ID
	return u.ID, nil
}

func (r *run) eventID(ctx context.Context, name string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if id, ok := r.events[name]; ok {
		return id, nil
	}
	e, err := r.im.events.GetByName(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	r.events[name] = e.ID
	return e.ID, nil
}
