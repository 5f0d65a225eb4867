package engine

import "github.com/nhle/fleet-notify/internal/model"

// Item is a notification plus its local-only state.
type Item struct {
	model.Notification

	// PendingDelete hides the item while its delete is in flight.
	PendingDelete bool
}

// Collection is the in-memory notification set, in hydration order.
// Ids are unique; a later duplicate in Replace is dropped.
type Collection struct {
	items []*Item
	index map[string]*Item
}

func newCollection() *Collection {
	return &Collection{index: make(map[string]*Item)}
}

// Replace swaps the whole set for ns.
func (c *Collection) Replace(ns []model.Notification) {
	c.items = make([]*Item, 0, len(ns))
	c.index = make(map[string]*Item, len(ns))
	for _, n := range ns {
		if n.ID == "" {
			continue
		}
		if _, dup := c.index[n.ID]; dup {
			continue
		}
		it := &Item{Notification: n}
		c.items = append(c.items, it)
		c.index[n.ID] = it
	}
}

// Get returns the item for id, or nil.
func (c *Collection) Get(id string) *Item { return c.index[id] }

func (c *Collection) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Collection) Len() int { return len(c.items) }

// Remove drops ids and returns how many were present.
func (c *Collection) Remove(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.index[id]; ok {
			drop[id] = struct{}{}
			delete(c.index, id)
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := c.items[:0]
	for _, it := range c.items {
		if _, gone := drop[it.ID]; !gone {
			kept = append(kept, it)
		}
	}
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = nil
	}
	c.items = kept
	return len(drop)
}

// All returns every notification, pending deletes included.
func (c *Collection) All() []model.Notification {
	out := make([]model.Notification, len(c.items))
	for i, it := range c.items {
		out[i] = it.Notification
	}
	return out
}

// Shown returns the notifications not hidden by a pending delete.
func (c *Collection) Shown() []model.Notification {
	out := make([]model.Notification, 0, len(c.items))
	for _, it := range c.items {
		if !it.PendingDelete {
			out = append(out, it.Notification)
		}
	}
	return out
}

// UnreadIDs returns the ids of shown unread notifications.
func (c *Collection) UnreadIDs() []string {
	var out []string
	for _, it := range c.items {
		if !it.PendingDelete && !it.Read {
			out = append(out, it.ID)
		}
	}
	return out
}
