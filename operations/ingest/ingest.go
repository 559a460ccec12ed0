// Package ingest runs the batch extraction stage: a set of candidate file
// paths goes in, a timestamp-sorted artifact slice and a per-file failure
// report come out. Extraction of independent files runs in parallel; the
// sort is the join point before the sequential resolver and builder stages.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/billmerrill/highlights/common"
	"github.com/billmerrill/highlights/extract"
	"github.com/billmerrill/highlights/travelogue"
)

// IngestOptions configures a batch ingest.
type IngestOptions struct {
	// Workers is the number of concurrent extractions. Zero or negative
	// means runtime.NumCPU.
	Workers int
	// Classifier dispatches each file to its extractor. Nil means the
	// default classifier.
	Classifier *extract.Classifier
}

// FailedFile records one file whose extraction failed. The batch carries
// on without it.
type FailedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes what a batch ingest did and did not manage to do.
type Report struct {
	// Ingested is the number of files that became artifacts.
	Ingested int `json:"ingested"`
	// Skipped lists zero-length files, which carry nothing worth keeping.
	Skipped []string `json:"skipped,omitempty"`
	// Failed lists files whose extraction failed, with reasons.
	Failed []FailedFile `json:"failed,omitempty"`
}

// IngestFiles extracts metadata from every path concurrently and reduces
// the results into a single artifact slice sorted by timestamp (ties
// broken by path). One file's failure never aborts the batch; failures are
// recorded in the report instead. The error return is reserved for the
// batch itself being cancelled.
func IngestFiles(ctx context.Context, paths []string, opts *IngestOptions) ([]*travelogue.Artifact, *Report, error) {

	if opts == nil {
		opts = &IngestOptions{}
	}

	workers := opts.Workers

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	cl := opts.Classifier

	if cl == nil {
		cl = extract.NewClassifier()
	}

	job_ch := make(chan string)
	result_ch := make(chan result)

	wg := new(sync.WaitGroup)

	for i := 0; i < workers; i++ {

		wg.Add(1)

		go func() {

			defer wg.Done()

			for path := range job_ch {
				result_ch <- ingestFile(ctx, cl, path)
			}
		}()
	}

	go func() {

		defer close(job_ch)

		for _, path := range paths {

			select {
			case <-ctx.Done():
				return
			case job_ch <- path:
				// pass
			}
		}
	}()

	go func() {
		wg.Wait()
		close(result_ch)
	}()

	logger := slog.Default()

	artifacts := make([]*travelogue.Artifact, 0, len(paths))
	report := new(Report)

	for rsp := range result_ch {

		switch {
		case rsp.artifact != nil:
			artifacts = append(artifacts, rsp.artifact)
			report.Ingested += 1
		case rsp.skipped != "":
			report.Skipped = append(report.Skipped, rsp.skipped)
		case rsp.failed != nil:
			logger.Warn("Failed to extract artifact", "path", rsp.failed.Path, "reason", rsp.failed.Reason)
			report.Failed = append(report.Failed, *rsp.failed)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	travelogue.SortArtifacts(artifacts)

	return artifacts, report, nil
}

// result carries one file's outcome back to the reducer so workers never
// touch shared state.
type result struct {
	artifact *travelogue.Artifact
	skipped  string
	failed   *FailedFile
}

func ingestFile(ctx context.Context, cl *extract.Classifier, path string) (rsp result) {

	info, err := os.Stat(path)

	if err != nil {
		rsp.failed = &FailedFile{
			Path:   path,
			Reason: err.Error(),
		}
		return
	}

	if info.Size() == 0 {
		rsp.skipped = path
		return
	}

	x := cl.Classify(path)

	m, err := x.Extract(ctx, path)

	if err != nil {
		rsp.failed = &FailedFile{
			Path:   path,
			Reason: failureReason(err),
		}
		return
	}

	rsp.artifact = &travelogue.Artifact{
		ID:                  common.ArtifactID(path),
		Type:                m.Type,
		Timestamp:           m.Timestamp,
		TimestampIsFallback: m.TimestampIsFallback,
		Duration:            m.Duration,
		Geometry:            m.Geometry,
		SourcePath:          path,
	}

	return
}

func failureReason(err error) string {

	var ee *extract.ExtractionError

	if errors.As(err, &ee) {
		return ee.Reason
	}

	return err.Error()
}
