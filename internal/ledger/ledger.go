// Package ledger is the single source of truth for equipment assignment
// state, the volunteer roster and the event config. Every operation is a
// full read-validate-write cycle against the store; no partial write is
// ever observable.
package ledger

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"walkieDesk/internal/audit"
	"walkieDesk/internal/ident"
	"walkieDesk/internal/model"
	"walkieDesk/internal/store"
)

var (
	ErrFirstNameRequired = errors.New("firstName required")
	ErrNumberRequired    = errors.New("number required")
	ErrVolunteerNotFound = errors.New("volunteer not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrNumberExists      = errors.New("number already exists")
	ErrAlreadySignedOut  = errors.New("already signed out")
	ErrItemUnusable      = errors.New("marked as unusable")
	ErrInvalidPin        = errors.New("invalid PIN")
)

// Collection selects one of the two parallel item pools. Both share the
// same lifecycle; only labels and storage keys differ.
type Collection string

const (
	Walkies   Collection = store.Walkies
	LiftCards Collection = store.LiftCards
)

// Label is the display name used in operator-facing error messages.
func (c Collection) Label() string {
	if c == LiftCards {
		return "Lift card"
	}
	return "Walkie"
}

// ItemType is the denormalized tag recorded in audit entries.
func (c Collection) ItemType() string {
	if c == LiftCards {
		return "lift-card"
	}
	return "walkie"
}

type Ledger struct {
	store   store.Store
	audit   *audit.Log
	log     *zerolog.Logger
	newID   ident.Generator
	now     func() time.Time
	seedPin string

	// mu serializes whole read-validate-write cycles. The store only
	// guarantees atomicity per read or write, so without this two
	// concurrent sign-outs could both see the item as available.
	mu sync.Mutex
}

func New(st store.Store, auditLog *audit.Log, logger *zerolog.Logger, seedPin string) *Ledger {
	return &Ledger{
		store:   st,
		audit:   auditLog,
		log:     logger,
		newID:   ident.New,
		now:     time.Now,
		seedPin: seedPin,
	}
}

func (l *Ledger) loadVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	doc, err := l.store.ReadCollection(ctx, store.Volunteers)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var volunteers []model.Volunteer
	if err := json.Unmarshal(doc, &volunteers); err != nil {
		return nil, fmt.Errorf("failed to decode volunteers: %w", err)
	}
	return volunteers, nil
}

func (l *Ledger) saveVolunteers(ctx context.Context, volunteers []model.Volunteer) error {
	if volunteers == nil {
		volunteers = []model.Volunteer{}
	}
	doc, err := json.Marshal(volunteers)
	if err != nil {
		return fmt.Errorf("failed to encode volunteers: %w", err)
	}
	return l.store.WriteCollection(ctx, store.Volunteers, doc)
}

func (l *Ledger) loadItems(ctx context.Context, col Collection) ([]model.Item, error) {
	doc, err := l.store.ReadCollection(ctx, string(col))
	if errors.Is(err, store.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []model.Item
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", col, err)
	}
	return items, nil
}

func (l *Ledger) saveItems(ctx context.Context, col Collection, items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	doc, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", col, err)
	}
	return l.store.WriteCollection(ctx, string(col), doc)
}

func (l *Ledger) loadConfig(ctx context.Context) (model.Config, error) {
	doc, err := l.store.ReadCollection(ctx, store.Config)
	if errors.Is(err, store.ErrNoDocument) {
		return model.Config{AdminPin: l.seedPin, Theme: "default"}, nil
	}
	if err != nil {
		return model.Config{}, err
	}

	var cfg model.Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (l *Ledger) saveConfig(ctx context.Context, cfg model.Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return l.store.WriteCollection(ctx, store.Config, doc)
}

// Volunteers returns the current roster.
func (l *Ledger) Volunteers(ctx context.Context) ([]model.Volunteer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	volunteers, err := l.loadVolunteers(ctx)
	if err != nil {
		return nil, err
	}
	if volunteers == nil {
		volunteers = []model.Volunteer{}
	}
	return volunteers, nil
}

func (l *Ledger) AddVolunteer(ctx context.Context, firstName, lastName, phone string) (model.Volunteer, error) {
	if firstName == "" {
		return model.Volunteer{}, ErrFirstNameRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	volunteers, err := l.loadVolunteers(ctx)
	if err != nil {
		return model.Volunteer{}, err
	}

	volunteer := model.Volunteer{
		ID:        l.newID(),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
	}
	volunteers = append(volunteers, volunteer)

	if err := l.saveVolunteers(ctx, volunteers); err != nil {
		return model.Volunteer{}, err
	}

	l.log.Info().Str("volunteer_id", volunteer.ID).Msg("volunteer added")
	return volunteer, nil
}

// VolunteerUpdate carries a partial update. A nil field means "no change";
// any provided value, including the empty string, is set as given. Setting
// FirstName to the empty string is rejected.
type VolunteerUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

func (l *Ledger) UpdateVolunteer(ctx context.Context, id string, fields VolunteerUpdate) (model.Volunteer, error) {
	if fields.FirstName != nil && *fields.FirstName == "" {
		return model.Volunteer{}, ErrFirstNameRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	volunteers, err := l.loadVolunteers(ctx)
	if err != nil {
		return model.Volunteer{}, err
	}

	idx := -1
	for i := range volunteers {
		if volunteers[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Volunteer{}, ErrVolunteerNotFound
	}

	if fields.FirstName != nil {
		volunteers[idx].FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		volunteers[idx].LastName = *fields.LastName
	}
	if fields.Phone != nil {
		volunteers[idx].Phone = *fields.Phone
	}

	if err := l.saveVolunteers(ctx, volunteers); err != nil {
		return model.Volunteer{}, err
	}
	return volunteers[idx], nil
}

// DeleteVolunteer removes a volunteer without cascading: items they still
// hold and their audit entries keep the dangling id on purpose.
func (l *Ledger) DeleteVolunteer(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	volunteers, err := l.loadVolunteers(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range volunteers {
		if volunteers[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrVolunteerNotFound
	}

	volunteers = append(volunteers[:idx], volunteers[idx+1:]...)
	if err := l.saveVolunteers(ctx, volunteers); err != nil {
		return err
	}

	l.log.Info().Str("volunteer_id", id).Msg("volunteer deleted")
	return nil
}

// ConfigView is the redacted config returned to callers; the admin PIN is
// never exposed.
type ConfigView struct {
	EventName string `json:"eventName"`
	Theme     string `json:"theme"`
}

func redact(cfg model.Config) ConfigView {
	theme := cfg.Theme
	if theme == "" {
		theme = "default"
	}
	return ConfigView{EventName: cfg.EventName, Theme: theme}
}

func (l *Ledger) GetConfig(ctx context.Context) (ConfigView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, err := l.loadConfig(ctx)
	if err != nil {
		return ConfigView{}, err
	}
	return redact(cfg), nil
}

type ConfigUpdate struct {
	EventName *string
	AdminPin  *string
	Theme     *string
}

func (l *Ledger) UpdateConfig(ctx context.Context, fields ConfigUpdate) (ConfigView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, err := l.loadConfig(ctx)
	if err != nil {
		return ConfigView{}, err
	}

	if fields.EventName != nil {
		cfg.EventName = *fields.EventName
	}
	if fields.AdminPin != nil {
		cfg.AdminPin = *fields.AdminPin
	}
	if fields.Theme != nil {
		cfg.Theme = *fields.Theme
	}

	if err := l.saveConfig(ctx, cfg); err != nil {
		return ConfigView{}, err
	}
	return redact(cfg), nil
}

func (l *Ledger) VerifyPin(ctx context.Context, candidate string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, err := l.loadConfig(ctx)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(cfg.AdminPin)) != 1 {
		return ErrInvalidPin
	}
	return nil
}

// AuditLog returns the enriched audit trail, most recent first.
func (l *Ledger) AuditLog(ctx context.Context) ([]audit.EnrichedEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	volunteers, err := l.loadVolunteers(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(volunteers))
	for _, v := range volunteers {
		names[v.ID] = strings.TrimSpace(v.FirstName + " " + v.LastName)
	}

	return l.audit.List(ctx, func(volunteerID string) (string, bool) {
		name, ok := names[volunteerID]
		return name, ok
	})
}

func (l *Ledger) ClearAuditLog(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.audit.Clear(ctx)
}
