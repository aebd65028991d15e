package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/lintang-b-s/trafficnav/pkg/engine/speed"
	log "github.com/sirupsen/logrus"
)

var (
	csvFile  = flag.String("f", "traffic.csv", "historical traffic records: road_id,date,time,speed_kmh")
	modelDir = flag.String("out", "", "pebble directory of the speed model, defaults to MODEL_DIR")
)

// speedmodel aggregate historical traffic records into per road, weekday and hour mean
// speeds and write them to the pebble store the engine loads.
func main() {
	flag.Parse()
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	dir := *modelDir
	if dir == "" {
		dir = os.Getenv("MODEL_DIR")
	}
	if dir == "" {
		dir = "./speedmodel"
	}

	f, err := os.Open(*csvFile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	trainer := speed.NewTrainer()
	added, skipped, err := trainer.ReadCSV(f)
	if err != nil {
		log.Fatalf("read %s: %v", *csvFile, err)
	}
	log.WithFields(log.Fields{
		"records": added,
		"skipped": skipped,
		"roads":   trainer.NumRoads(),
	}).Info("traffic records aggregated")

	db, err := speed.OpenPebble(dir)
	if err != nil {
		log.Fatal(err)
	}
	if err := trainer.Save(db); err != nil {
		db.Close()
		log.Fatal(err)
	}
	if err := db.Close(); err != nil {
		log.Fatal(err)
	}

	log.Infof("speed model written to %s, send SIGHUP to a running engine to reload it", dir)
}
