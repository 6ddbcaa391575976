package ledger

import (
	"context"

	"walkieDesk/internal/model"
)

// Items returns every item in the collection.
func (l *Ledger) Items(ctx context.Context, col Collection) ([]model.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Item returns a single item by id.
func (l *Ledger) Item(ctx context.Context, col Collection, id string) (model.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return model.Item{}, err
	}
	for i := range items {
		if items[i].ID == id {
			return items[i], nil
		}
	}
	return model.Item{}, ErrItemNotFound
}

// AddItem creates an available item. Numbers are unique within a
// collection; a walkie and a lift card may share a number.
func (l *Ledger) AddItem(ctx context.Context, col Collection, number *int, notes string) (model.Item, error) {
	if number == nil {
		return model.Item{}, ErrNumberRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return model.Item{}, err
	}

	for i := range items {
		if items[i].Number == *number {
			return model.Item{}, ErrNumberExists
		}
	}

	item := model.Item{
		ID:     l.newID(),
		Number: *number,
		Notes:  notes,
	}
	items = append(items, item)

	if err := l.saveItems(ctx, col, items); err != nil {
		return model.Item{}, err
	}

	l.log.Info().Str("item_id", item.ID).Int("number", item.Number).Str("collection", string(col)).Msg("item added")
	return item, nil
}

// ItemUpdate carries a partial update; nil means "no change".
type ItemUpdate struct {
	Number   *int
	Notes    *string
	Unusable *bool
}

func (l *Ledger) UpdateItem(ctx context.Context, col Collection, id string, fields ItemUpdate) (model.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return model.Item{}, err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Item{}, ErrItemNotFound
	}

	if fields.Number != nil && *fields.Number != items[idx].Number {
		for i := range items {
			if i != idx && items[i].Number == *fields.Number {
				return model.Item{}, ErrNumberExists
			}
		}
		items[idx].Number = *fields.Number
	}
	if fields.Notes != nil {
		items[idx].Notes = *fields.Notes
	}
	if fields.Unusable != nil {
		items[idx].Unusable = *fields.Unusable
	}

	if err := l.saveItems(ctx, col, items); err != nil {
		return model.Item{}, err
	}
	return items[idx], nil
}

// DeleteItem removes an item even while it is signed out; audit entries
// keep the denormalized number so history survives.
func (l *Ledger) DeleteItem(ctx context.Context, col Collection, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrItemNotFound
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := l.saveItems(ctx, col, items); err != nil {
		return err
	}

	l.log.Info().Str("item_id", id).Str("collection", string(col)).Msg("item deleted")
	return nil
}

// ToggleUnusable flips the unusable flag without touching the current
// assignment. An unusable item can still be returned, just not signed out.
func (l *Ledger) ToggleUnusable(ctx context.Context, col Collection, id string) (model.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return model.Item{}, err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Item{}, ErrItemNotFound
	}

	items[idx].Unusable = !items[idx].Unusable

	if err := l.saveItems(ctx, col, items); err != nil {
		return model.Item{}, err
	}
	return items[idx], nil
}

// SignOut assigns an item to a volunteer. Preconditions are checked in
// order: the item exists, is not already out, and is not unusable. A
// successful sign-out appends one audit entry.
func (l *Ledger) SignOut(ctx context.Context, col Collection, itemID, volunteerID string) (model.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return model.Item{}, err
	}

	idx := -1
	for i := range items {
		if items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Item{}, ErrItemNotFound
	}

	if items[idx].AssignedTo != nil {
		return model.Item{}, ErrAlreadySignedOut
	}
	if items[idx].Unusable {
		return model.Item{}, ErrItemUnusable
	}

	now := l.now()
	items[idx].AssignedTo = &volunteerID
	items[idx].AssignedAt = &now

	if err := l.saveItems(ctx, col, items); err != nil {
		return model.Item{}, err
	}

	if err := l.audit.Append(ctx, model.ActionSignOut, col.ItemType(), items[idx].Number, volunteerID); err != nil {
		return model.Item{}, err
	}

	l.log.Info().
		Str("item_id", itemID).
		Int("number", items[idx].Number).
		Str("volunteer_id", volunteerID).
		Str("collection", string(col)).
		Msg("item signed out")
	return items[idx], nil
}

// Return clears the assignment. Returning an item that is not out is a
// successful no-op and appends no audit entry.
func (l *Ledger) Return(ctx context.Context, col Collection, id string) (model.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return model.Item{}, err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Item{}, ErrItemNotFound
	}

	if items[idx].AssignedTo != nil {
		// Record the return against the holder before clearing it.
		previousVolunteerID := *items[idx].AssignedTo
		if err := l.audit.Append(ctx, model.ActionReturn, col.ItemType(), items[idx].Number, previousVolunteerID); err != nil {
			return model.Item{}, err
		}

		l.log.Info().
			Str("item_id", id).
			Int("number", items[idx].Number).
			Str("volunteer_id", previousVolunteerID).
			Str("collection", string(col)).
			Msg("item returned")
	}

	items[idx].AssignedTo = nil
	items[idx].AssignedAt = nil

	if err := l.saveItems(ctx, col, items); err != nil {
		return model.Item{}, err
	}
	return items[idx], nil
}

// ResetAll clears every assignment in the collection. The reset itself is
// not audited and unusable flags are left alone.
func (l *Ledger) ResetAll(ctx context.Context, col Collection) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.loadItems(ctx, col)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].AssignedTo = nil
		items[i].AssignedAt = nil
	}

	if err := l.saveItems(ctx, col, items); err != nil {
		return err
	}

	l.log.Info().Str("collection", string(col)).Int("count", len(items)).Msg("all assignments reset")
	return nil
}
