package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	_ "gocloud.dev/blob/fileblob"

	"github.com/billmerrill/highlights/common"
	"github.com/billmerrill/highlights/operations/ingest"
	"github.com/billmerrill/highlights/operations/publish"
	"github.com/billmerrill/highlights/travelogue"
)

func main() {

	trip_name := flag.String("name", "Untitled trip", "The name of the trip being assembled.")
	source := flag.String("source", "", "The directory containing trip artifacts to ingest.")
	target := flag.String("target", "", "A valid gocloud.dev/blob bucket URI where travelogue documents are written.")
	workers := flag.Int("workers", 0, "The number of concurrent extractions. Zero means one per CPU.")

	flag.Parse()

	ctx := context.Background()

	paths := make([]string, 0)

	err := filepath.WalkDir(*source, func(path string, d fs.DirEntry, err error) error {

		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		paths = append(paths, path)
		return nil
	})

	if err != nil {
		log.Fatalf("Failed to walk source directory, %v", err)
	}

	ingest_opts := &ingest.IngestOptions{
		Workers: *workers,
	}

	artifacts, report, err := ingest.IngestFiles(ctx, paths, ingest_opts)

	if err != nil {
		log.Fatalf("Failed to ingest artifacts, %v", err)
	}

	for _, f := range report.Failed {
		log.Printf("Skipped %s: %s\n", f.Path, f.Reason)
	}

	resolver := travelogue.NewForwardFill()
	artifacts = resolver.Resolve(artifacts)

	tl := travelogue.NewTravelogue()

	trip, err := tl.AddTrip(*trip_name, artifacts, nil)

	if err != nil {
		log.Fatalf("Failed to build travelogue, %v", err)
	}

	bucket, err := common.OpenBucket(ctx, *target)

	if err != nil {
		log.Fatal(err)
	}

	defer bucket.Close()

	p := &publish.Publisher{
		Bucket: bucket,
	}

	cfg, err := p.PublishTrip(ctx, tl, trip)

	if err != nil {
		log.Fatalf("Failed to publish travelogue, %v", err)
	}

	enc, err := json.Marshal(cfg)

	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(enc))
}
