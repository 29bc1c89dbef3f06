package application

import (
	"sync"
	"time"
)

// scheduleCache stores recently computed day calendars so repeated reads of the
// same date skip reloading and re-laying out every booking. Any persisted
// mutation clears it and bumps the generation, so a calendar computed from a
// snapshot loaded before the mutation is never stored.
type scheduleCache struct {
	mu         sync.RWMutex
	generation uint64
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]scheduleCacheEntry
}

type scheduleCacheEntry struct {
	schedule  DaySchedule
	expiresAt time.Time
}

func newScheduleCache(ttl time.Duration, maxEntries int, now func() time.Time) *scheduleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &scheduleCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]scheduleCacheEntry),
	}
}

func (c *scheduleCache) Get(date string) (DaySchedule, bool) {
	if c == nil {
		return DaySchedule{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[date]
	c.mu.RUnlock()
	if !ok {
		return DaySchedule{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, date)
		c.mu.Unlock()
		return DaySchedule{}, false
	}
	return cloneDaySchedule(entry.schedule), true
}

// Generation returns the current invalidation count. Read it before loading the data a
// calendar is computed from and pass it to Store.
func (c *scheduleCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Store keeps schedule unless the cache was invalidated after generation was read.
func (c *scheduleCache) Store(date string, schedule DaySchedule, generation uint64) bool {
	if c == nil {
		return false
	}
	cloned := cloneDaySchedule(schedule)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}
	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[date] = scheduleCacheEntry{schedule: cloned, expiresAt: expiry}
	return true
}

func (c *scheduleCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]scheduleCacheEntry)
	c.generation++
	c.mu.Unlock()
}

func (c *scheduleCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *scheduleCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneDaySchedule(schedule DaySchedule) DaySchedule {
	out := schedule
	if schedule.HourMarks != nil {
		out.HourMarks = append([]string(nil), schedule.HourMarks...)
	}
	if schedule.Rooms != nil {
		out.Rooms = make([]RoomSchedule, len(schedule.Rooms))
		for i, row := range schedule.Rooms {
			out.Rooms[i] = RoomSchedule{Room: row.Room}
			if row.Bookings != nil {
				out.Rooms[i].Bookings = append([]PlacedBooking(nil), row.Bookings...)
			}
		}
	}
	return out
}
