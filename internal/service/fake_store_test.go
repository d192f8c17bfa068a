package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
)

// fakeStore is a serializable in-memory store: every unit of work holds
// the mutex and operates on a copy of the state that is only swapped in
// on success, so a failed fn leaves nothing behind.
type fakeStore struct {
	mu    sync.Mutex
	state *fakeState

	// failUpdates makes the next n Update calls fail with contention.
	failUpdates int
	updates     int
}

type fakeState struct {
	properties map[uint64]model.Property
	categories map[uint64]model.RoomCategory
	inventory  map[uint64]map[string]model.InventoryRecord
	bookings   map[uint64]model.Booking
	nextID     uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: &fakeState{
		properties: map[uint64]model.Property{},
		categories: map[uint64]model.RoomCategory{},
		inventory:  map[uint64]map[string]model.InventoryRecord{},
		bookings:   map[uint64]model.Booking{},
		nextID:     1,
	}}
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		properties: make(map[uint64]model.Property, len(s.properties)),
		categories: make(map[uint64]model.RoomCategory, len(s.categories)),
		inventory:  make(map[uint64]map[string]model.InventoryRecord, len(s.inventory)),
		bookings:   make(map[uint64]model.Booking, len(s.bookings)),
		nextID:     s.nextID,
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, recs := range s.inventory {
		m := make(map[string]model.InventoryRecord, len(recs))
		for d, r := range recs {
			m[d] = r
		}
		c.inventory[k] = m
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	return c
}

func (f *fakeStore) View(ctx context.Context, fn func(tx port.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(&fakeTx{s: f.state.clone()})
}

func (f *fakeStore) Update(ctx context.Context, fn func(tx port.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failUpdates > 0 {
		f.failUpdates--
		return &model.ContentionError{Op: "fake", Err: context.DeadlineExceeded}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	work := f.state.clone()
	if err := fn(&fakeTx{s: work}); err != nil {
		return err
	}
	f.state = work
	return nil
}

// seed helpers, used outside of units of work.

func (f *fakeStore) addCategory(c model.RoomCategory, ownerID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.properties[c.PropertyID]; !ok {
		f.state.properties[c.PropertyID] = model.Property{ID: c.PropertyID, OwnerID: ownerID, Name: "Hotel"}
	}
	f.state.categories[c.ID] = c
}

func (f *fakeStore) addBooking(b model.Booking) model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.state.nextID
	f.state.nextID++
	f.state.bookings[b.ID] = b
	return b
}

func (f *fakeStore) setInventory(catID uint64, day time.Time, available int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.inventory[catID] == nil {
		f.state.inventory[catID] = map[string]model.InventoryRecord{}
	}
	f.state.inventory[catID][calendar.DateKey(day)] = model.InventoryRecord{RoomCategoryID: catID, Date: day, AvailableRooms: available}
}

func (f *fakeStore) inventoryOn(catID uint64, day time.Time) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.state.inventory[catID][calendar.DateKey(day)]
	return rec.AvailableRooms, ok
}

func (f *fakeStore) booking(id uint64) model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.bookings[id]
}

func (f *fakeStore) bookingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.state.bookings)
}

type fakeTx struct{ s *fakeState }

func (t *fakeTx) RoomCategory(_ context.Context, id uint64) (model.RoomCategory, error) {
	c, ok := t.s.categories[id]
	if !ok {
		return model.RoomCategory{}, &model.NotFoundError{Kind: "room category", ID: id}
	}
	return c, nil
}

func (t *fakeTx) Property(_ context.Context, id uint64) (model.Property, error) {
	p, ok := t.s.properties[id]
	if !ok {
		return model.Property{}, &model.NotFoundError{Kind: "property", ID: id}
	}
	return p, nil
}

func (t *fakeTx) InventoryRecords(_ context.Context, catID uint64, nights []time.Time, _ bool) (map[string]model.InventoryRecord, error) {
	out := map[string]model.InventoryRecord{}
	for _, n := range nights {
		if rec, ok := t.s.inventory[catID][calendar.DateKey(n)]; ok {
			out[calendar.DateKey(n)] = rec
		}
	}
	return out, nil
}

func (t *fakeTx) SeedInventory(_ context.Context, records []model.InventoryRecord) error {
	for _, r := range records {
		if t.s.inventory[r.RoomCategoryID] == nil {
			t.s.inventory[r.RoomCategoryID] = map[string]model.InventoryRecord{}
		}
		key := calendar.DateKey(r.Date)
		if _, ok := t.s.inventory[r.RoomCategoryID][key]; !ok {
			t.s.inventory[r.RoomCategoryID][key] = r
		}
	}
	return nil
}

func (t *fakeTx) AdjustInventory(_ context.Context, catID uint64, nights []time.Time, delta, ceiling int) error {
	for _, n := range nights {
		key := calendar.DateKey(n)
		rec, ok := t.s.inventory[catID][key]
		if !ok {
			continue
		}
		rec.AvailableRooms = clamp(rec.AvailableRooms+delta, 0, ceiling)
		t.s.inventory[catID][key] = rec
	}
	return nil
}

func (t *fakeTx) BookedRooms(_ context.Context, catID uint64, nights []time.Time) (map[string]int, error) {
	out := map[string]int{}
	for _, b := range t.s.bookings {
		if b.RoomCategoryID != catID || !b.Status.Holds() {
			continue
		}
		for _, n := range nights {
			if b.Covers(n) {
				out[calendar.DateKey(n)] += b.NumRooms
			}
		}
	}
	return out, nil
}

func (t *fakeTx) CreateBooking(_ context.Context, b *model.Booking) error {
	b.ID = t.s.nextID
	t.s.nextID++
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	t.s.bookings[b.ID] = *b
	return nil
}

func (t *fakeTx) Booking(_ context.Context, id uint64, _ bool) (model.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return model.Booking{}, &model.NotFoundError{Kind: "booking", ID: id}
	}
	return b, nil
}

func (t *fakeTx) UpdateBookingStatus(_ context.Context, b model.Booking, expected model.Status) (bool, error) {
	cur, ok := t.s.bookings[b.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	t.s.bookings[b.ID] = b
	return true, nil
}

func (t *fakeTx) MarkReleased(_ context.Context, id uint64, at time.Time) (bool, error) {
	b, ok := t.s.bookings[id]
	if !ok || b.ReleasedAt != nil {
		return false, nil
	}
	b.ReleasedAt = &at
	t.s.bookings[id] = b
	return true, nil
}

func (t *fakeTx) ListBookings(_ context.Context, catID uint64, from, to time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.s.bookings {
		if b.RoomCategoryID == catID && b.CheckIn.Before(to) && b.CheckOut.After(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

// recordingPublisher remembers every event it was handed.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Status
}

func (p *recordingPublisher) BookingChanged(_ context.Context, b model.Booking, _ model.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, b.Status)
	return nil
}

func (p *recordingPublisher) statuses() []model.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Status(nil), p.events...)
}
