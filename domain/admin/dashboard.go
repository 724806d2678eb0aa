package admin

import (
	"context"
	"strings"

	"github.com/akeren/wiwi-waitlist/domain/waitlist"
	"github.com/akeren/wiwi-waitlist/internal/models"
	"golang.org/x/text/cases"
)

// EntrySource is the read side of the waitlist store.
type EntrySource interface {
	ListEntries(ctx context.Context, order waitlist.SortOrder) ([]*models.WaitlistEntry, error)
}

// Dashboard is one admin view over the waitlist. It is not safe for concurrent use;
// each request, CLI run or snapshot builds its own.
type Dashboard struct {
	source  EntrySource
	order   waitlist.SortOrder
	search  string
	all     []*models.WaitlistEntry
	visible []*models.WaitlistEntry
	err     error
}

func NewDashboard(source EntrySource) *Dashboard {
	return &Dashboard{source: source, order: waitlist.DefaultSortOrder}
}

// Refresh replaces the fetched set. On failure the previous set is kept and the
// error is reported by Err until a later fetch succeeds.
func (d *Dashboard) Refresh(ctx context.Context) error {
	entries, err := d.source.ListEntries(ctx, d.order)
	if err != nil {
		d.err = err
		return err
	}

	d.all = entries
	d.err = nil
	d.applySearch()
	return nil
}

func (d *Dashboard) SetOrder(ctx context.Context, order waitlist.SortOrder) error {
	d.order = order
	return d.Refresh(ctx)
}

// SetSearch filters the fetched set locally without touching the store.
func (d *Dashboard) SetSearch(query string) {
	d.search = query
	d.applySearch()
}

func (d *Dashboard) applySearch() {
	if d.search == "" {
		d.visible = d.all
		return
	}

	fold := cases.Fold()
	needle := fold.String(d.search)

	visible := make([]*models.WaitlistEntry, 0, len(d.all))
	for _, entry := range d.all {
		if strings.Contains(fold.String(entry.Email), needle) {
			visible = append(visible, entry)
		}
	}
	d.visible = visible
}

func (d *Dashboard) Order() waitlist.SortOrder { return d.order }

func (d *Dashboard) Search() string { return d.search }

func (d *Dashboard) All() []*models.WaitlistEntry { return d.all }

func (d *Dashboard) Visible() []*models.WaitlistEntry { return d.visible }

func (d *Dashboard) Err() error { return d.err }
