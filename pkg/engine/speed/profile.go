package speed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	kbinary "github.com/kelindar/binary"
)

const (
	daysPerWeek = 7
	hoursPerDay = 24
	numSlots    = daysPerWeek * hoursPerDay
)

var (
	profilePrefix = []byte("profile/")
	classesKey    = []byte("meta/classes")

	ErrRoadNotProfiled = errors.New("road has no speed samples")
)

// Slot mean speed of one (weekday, hour) of a road.
type Slot struct {
	Mean    float64
	Samples uint32
}

// RoadProfile weekly speed profile of a road, slot index is dayOfWeek*24 + hour.
type RoadProfile struct {
	Slots []Slot
}

func slotIndex(dayOfWeek, hour int) int {
	return dayOfWeek*hoursPerDay + hour
}

func (rp *RoadProfile) slot(dayOfWeek, hour int) (Slot, bool) {
	idx := slotIndex(dayOfWeek, hour)
	if idx >= len(rp.Slots) || rp.Slots[idx].Samples == 0 {
		return Slot{}, false
	}
	return rp.Slots[idx], true
}

// Speed mean speed at (dayOfWeek, hour). empty slots fall back to the nearest hour of the
// same day, then the same hour over the other days, then the road's overall mean.
func (rp *RoadProfile) Speed(hour, dayOfWeek int) (float64, bool) {
	if s, ok := rp.slot(dayOfWeek, hour); ok {
		return s.Mean, true
	}

	for d := 1; d <= hoursPerDay/2; d++ {
		if s, ok := rp.slot(dayOfWeek, (hour-d+hoursPerDay)%hoursPerDay); ok {
			return s.Mean, true
		}
		if s, ok := rp.slot(dayOfWeek, (hour+d)%hoursPerDay); ok {
			return s.Mean, true
		}
	}

	sum, n := 0.0, 0.0
	for day := 0; day < daysPerWeek; day++ {
		if s, ok := rp.slot(day, hour); ok {
			sum += s.Mean * float64(s.Samples)
			n += float64(s.Samples)
		}
	}
	if n > 0 {
		return sum / n, true
	}

	for _, s := range rp.Slots {
		sum += s.Mean * float64(s.Samples)
		n += float64(s.Samples)
	}
	if n > 0 {
		return sum / n, true
	}
	return 0, false
}

// roadKey profile/ + big endian road id with the sign bit flipped, so keys sort by road id.
func roadKey(roadID int64) []byte {
	key := make([]byte, len(profilePrefix)+8)
	copy(key, profilePrefix)
	binary.BigEndian.PutUint64(key[len(profilePrefix):], uint64(roadID)^(1<<63))
	return key
}

// ProfileModel speed model backed by historical mean speeds stored in pebble.
type ProfileModel struct {
	db      *pebble.DB
	classes []int64
	cache   sync.Map // int64 -> *RoadProfile
}

// OpenPebble open a pebble store at dir, an empty dir keeps it in memory.
func OpenPebble(dir string) (*pebble.DB, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", dir, err)
	}
	return db, nil
}

func NewProfileModel(db *pebble.DB) (*ProfileModel, error) {
	val, closer, err := db.Get(classesKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: no classes stored", ErrModelUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer closer.Close()

	var classes []int64
	if err := kbinary.Unmarshal(val, &classes); err != nil {
		return nil, fmt.Errorf("%w: decode classes: %v", ErrModelUnavailable, err)
	}
	return &ProfileModel{db: db, classes: classes}, nil
}

// LoadProfileModel open the pebble store at dir and read the model from it.
func LoadProfileModel(dir string) (*ProfileModel, error) {
	db, err := OpenPebble(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	m, err := NewProfileModel(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// ReadProfileModel read every road profile of the pebble store at dir into memory and
// close the store, so the directory can be rewritten or reopened on the next reload.
func ReadProfileModel(dir string) (*ProfileModel, error) {
	m, err := LoadProfileModel(dir)
	if err != nil {
		return nil, err
	}
	for _, id := range m.classes {
		if _, err := m.profile(id); err != nil {
			m.Close()
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	}
	if err := m.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return m, nil
}

func (m *ProfileModel) Classes() []int64 {
	return m.classes
}

func (m *ProfileModel) profile(roadID int64) (*RoadProfile, error) {
	if rp, ok := m.cache.Load(roadID); ok {
		return rp.(*RoadProfile), nil
	}
	if m.db == nil {
		return nil, fmt.Errorf("%w: %d", ErrRoadNotProfiled, roadID)
	}

	val, closer, err := m.db.Get(roadKey(roadID))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRoadNotProfiled, roadID)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	rp := &RoadProfile{}
	if err := kbinary.Unmarshal(val, rp); err != nil {
		return nil, fmt.Errorf("decode profile of road %d: %w", roadID, err)
	}
	actual, _ := m.cache.LoadOrStore(roadID, rp)
	return actual.(*RoadProfile), nil
}

func (m *ProfileModel) Predict(roadID int64, hour, dayOfWeek int) (float64, error) {
	rp, err := m.profile(roadID)
	if err != nil {
		return 0, err
	}
	speed, ok := rp.Speed(hour, dayOfWeek)
	if !ok || math.IsNaN(speed) {
		return 0, fmt.Errorf("%w: %d", ErrRoadNotProfiled, roadID)
	}
	return speed, nil
}

// Close the underlying store. profiles already read stay usable.
func (m *ProfileModel) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
