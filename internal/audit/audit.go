// Package audit keeps the append-only record of sign-out and return
// events. Entries are never updated in place; the only destructive
// operation is a whole-log clear.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"walkieDesk/internal/ident"
	"walkieDesk/internal/model"
	"walkieDesk/internal/store"
)

type Log struct {
	store store.Store
	log   *zerolog.Logger
	newID ident.Generator
	now   func() time.Time
}

// EnrichedEntry is an audit entry joined with the volunteer's display name
// at read time. Entries for deleted volunteers render as "Unknown".
type EnrichedEntry struct {
	model.AuditEntry
	VolunteerName string `json:"volunteerName"`
}

func New(st store.Store, logger *zerolog.Logger) *Log {
	return &Log{
		store: st,
		log:   logger,
		newID: ident.New,
		now:   time.Now,
	}
}

func (l *Log) load(ctx context.Context) ([]model.AuditEntry, error) {
	doc, err := l.store.ReadCollection(ctx, store.AuditLog)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []model.AuditEntry
	if err := json.Unmarshal(doc, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit log: %w", err)
	}
	return entries, nil
}

func (l *Log) save(ctx context.Context, entries []model.AuditEntry) error {
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	doc, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}
	return l.store.WriteCollection(ctx, store.AuditLog, doc)
}

// Append records one action. The id and timestamp are assigned here.
func (l *Log) Append(ctx context.Context, action, itemType string, itemNumber int, volunteerID string) error {
	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	entry := model.AuditEntry{
		ID:          l.newID(),
		Action:      action,
		ItemType:    itemType,
		ItemNumber:  itemNumber,
		VolunteerID: volunteerID,
		Timestamp:   l.now(),
	}
	entries = append(entries, entry)

	if err := l.save(ctx, entries); err != nil {
		return err
	}

	l.log.Info().
		Str("action", action).
		Str("item_type", itemType).
		Int("item_number", itemNumber).
		Str("volunteer_id", volunteerID).
		Msg("audit entry appended")
	return nil
}

// List returns all entries sorted by timestamp descending, each enriched
// through resolve. A resolve miss yields the "Unknown" placeholder rather
// than an error.
func (l *Log) List(ctx context.Context, resolve func(volunteerID string) (string, bool)) ([]EnrichedEntry, error) {
	entries, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedEntry, 0, len(entries))
	for _, e := range entries {
		name, ok := resolve(e.VolunteerID)
		if !ok {
			name = "Unknown"
		}
		enriched = append(enriched, EnrichedEntry{AuditEntry: e, VolunteerName: name})
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].Timestamp.After(enriched[j].Timestamp)
	})
	return enriched, nil
}

func (l *Log) Clear(ctx context.Context) error {
	if err := l.save(ctx, nil); err != nil {
		return err
	}
	l.log.Info().Msg("audit log cleared")
	return nil
}
