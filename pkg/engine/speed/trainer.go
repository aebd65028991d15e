package speed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	kbinary "github.com/kelindar/binary"
	log "github.com/sirupsen/logrus"
)

// Record one historical traffic observation.
type Record struct {
	RoadID   int64
	At       time.Time
	SpeedKmh float64
}

// DayOfWeek monday=0 ... sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

type accumulator struct {
	sum [numSlots]float64
	n   [numSlots]uint32
}

// Trainer aggregate traffic records into per road weekly speed profiles.
type Trainer struct {
	roads map[int64]*accumulator
}

func NewTrainer() *Trainer {
	return &Trainer{roads: make(map[int64]*accumulator)}
}

func (t *Trainer) Add(rec Record) {
	acc, ok := t.roads[rec.RoadID]
	if !ok {
		acc = &accumulator{}
		t.roads[rec.RoadID] = acc
	}
	idx := slotIndex(DayOfWeek(rec.At), rec.At.Hour())
	acc.sum[idx] += rec.SpeedKmh
	acc.n[idx]++
}

func (t *Trainer) NumRoads() int {
	return len(t.roads)
}

var requiredColumns = []string{"road_id", "date", "time", "speed_kmh"}

// ReadCSV read traffic records with a header row containing at least
// road_id, date (YYYY-MM-DD), time (HH:MM[:SS]) and speed_kmh. rows that do not
// parse are skipped and counted.
func (t *Trainer) ReadCSV(r io.Reader) (added int, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := col[c]; !ok {
			return 0, 0, fmt.Errorf("csv header is missing column %q", c)
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return added, skipped, fmt.Errorf("read csv row: %w", err)
		}

		rec, err := parseRecord(row, col)
		if err != nil {
			skipped++
			log.WithField("component", "speed").Debugf("skipping row %v: %v", row, err)
			continue
		}
		t.Add(rec)
		added++
	}
	return added, skipped, nil
}

func parseRecord(row []string, col map[string]int) (Record, error) {
	field := func(name string) (string, error) {
		i := col[name]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s", name)
		}
		return strings.TrimSpace(row[i]), nil
	}

	rawID, err := field("road_id")
	if err != nil {
		return Record{}, err
	}
	roadID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("road_id: %w", err)
	}

	rawDate, err := field("date")
	if err != nil {
		return Record{}, err
	}
	rawTime, err := field("time")
	if err != nil {
		return Record{}, err
	}
	at, err := time.Parse("2006-01-02 15:04:05", rawDate+" "+rawTime)
	if err != nil {
		at, err = time.Parse("2006-01-02 15:04", rawDate+" "+rawTime)
		if err != nil {
			return Record{}, fmt.Errorf("date/time: %w", err)
		}
	}

	rawSpeed, err := field("speed_kmh")
	if err != nil {
		return Record{}, err
	}
	speed, err := strconv.ParseFloat(rawSpeed, 64)
	if err != nil {
		return Record{}, fmt.Errorf("speed_kmh: %w", err)
	}
	if speed < 0 {
		return Record{}, fmt.Errorf("negative speed %v", speed)
	}

	return Record{RoadID: roadID, At: at, SpeedKmh: speed}, nil
}

// Profiles the aggregated profile of every road, keyed by road id.
func (t *Trainer) Profiles() map[int64]*RoadProfile {
	profiles := make(map[int64]*RoadProfile, len(t.roads))
	for roadID, acc := range t.roads {
		rp := &RoadProfile{Slots: make([]Slot, numSlots)}
		for i := 0; i < numSlots; i++ {
			if acc.n[i] == 0 {
				continue
			}
			rp.Slots[i] = Slot{Mean: acc.sum[i] / float64(acc.n[i]), Samples: acc.n[i]}
		}
		profiles[roadID] = rp
	}
	return profiles
}

// Save write every road profile and the sorted class list in one batch.
func (t *Trainer) Save(db *pebble.DB) error {
	if len(t.roads) == 0 {
		return errors.New("no traffic records to save")
	}

	classes := make([]int64, 0, len(t.roads))
	batch := db.NewBatch()
	defer batch.Close()

	for roadID, rp := range t.Profiles() {
		val, err := kbinary.Marshal(*rp)
		if err != nil {
			return fmt.Errorf("encode profile of road %d: %w", roadID, err)
		}
		if err := batch.Set(roadKey(roadID), val, nil); err != nil {
			return err
		}
		classes = append(classes, roadID)
	}

	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	val, err := kbinary.Marshal(classes)
	if err != nil {
		return fmt.Errorf("encode classes: %w", err)
	}
	if err := batch.Set(classesKey, val, nil); err != nil {
		return err
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit speed profiles: %w", err)
	}
	log.WithFields(log.Fields{
		"component": "speed",
		"roads":     len(classes),
	}).Info("speed profiles saved")
	return nil
}
