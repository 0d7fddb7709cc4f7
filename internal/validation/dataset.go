package validation

// dataset.go implements dataset-level validation: a fold of ValidateRecord
// over every record in input order, with progress reporting and optional
// early exit. Dataset validation is total — it always returns a result
// object, never an error.

import "sync"

// progressInterval is how often the progress callback fires, in records.
const progressInterval = 100

// ProgressUpdate carries running counts to a progress callback. It is a
// reporting side channel only and never affects the result.
type ProgressUpdate struct {
	Processed int
	Valid     int
	Invalid   int
	Done      bool
}

// ProgressFunc receives periodic progress updates during dataset validation.
// It must not mutate the dataset being iterated.
type ProgressFunc func(ProgressUpdate)

// DatasetOptions configures a dataset validation pass.
type DatasetOptions struct {
	Options

	// StopOnError halts iteration at the first invalid record.
	StopOnError bool

	// MaxErrors halts once the cumulative error count across records
	// reaches the threshold. Zero means no limit.
	MaxErrors int

	// Progress, if set, is invoked every 100 records and once more on
	// completion.
	Progress ProgressFunc

	// Workers enables parallel validation when greater than 1. Record
	// validation is independent and side-effect-free, so parallel runs
	// produce the same per-record results; StopOnError/MaxErrors become
	// best-effort and periodic progress callbacks are skipped.
	Workers int
}

// AcceptedRecord is a valid record in a dataset result. Record holds the
// sanitized form.
type AcceptedRecord struct {
	Index    int      `json:"index"`
	Record   Record   `json:"record"`
	Warnings []string `json:"warnings,omitempty"`
}

// RejectedRecord is an invalid record in a dataset result. Record holds the
// original, unsanitized form for operator review.
type RejectedRecord struct {
	Index    int      `json:"index"`
	Record   Record   `json:"record"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// Summary aggregates counts over a dataset validation pass.
type Summary struct {
	Valid         int `json:"valid"`
	Invalid       int `json:"invalid"`
	TotalErrors   int `json:"totalErrors"`
	TotalWarnings int `json:"totalWarnings"`
}

// DatasetResult is the aggregate outcome of validating a record list.
type DatasetResult struct {
	// TotalRecords is the size of the input dataset. When Truncated is
	// set, fewer records than this were processed.
	TotalRecords   int              `json:"totalRecords"`
	ValidRecords   []AcceptedRecord `json:"validRecords"`
	InvalidRecords []RejectedRecord `json:"invalidRecords"`
	Truncated      bool             `json:"truncated,omitempty"`
	Summary        Summary          `json:"summary"`
}

// Errors returns the flattened error list across all rejected records.
func (r *DatasetResult) Errors() []string {
	var out []string
	for _, rec := range r.InvalidRecords {
		out = append(out, rec.Errors...)
	}
	return out
}

// Warnings returns the flattened warning list across all records.
func (r *DatasetResult) Warnings() []string {
	var out []string
	for _, rec := range r.ValidRecords {
		out = append(out, rec.Warnings...)
	}
	for _, rec := range r.InvalidRecords {
		out = append(out, rec.Warnings...)
	}
	return out
}

// ValidateDataset validates records in input order, never reordering or
// deduplicating, and never mutating the input. Accepted records carry their
// sanitized form; rejected records carry the original.
func (e *Engine) ValidateDataset(records []Record, reportType, subType string, opts *DatasetOptions) *DatasetResult {
	if opts == nil {
		opts = &DatasetOptions{}
	}
	if opts.Workers > 1 {
		return e.validateDatasetParallel(records, reportType, subType, opts)
	}

	res := &DatasetResult{TotalRecords: len(records)}
	errTotal := 0
	processed := 0

	for i, rec := range records {
		r := e.ValidateRecord(rec, reportType, subType, &opts.Options)
		res.fold(i, rec, r)
		processed++
		errTotal += len(r.Errors)

		if opts.Progress != nil && processed%progressInterval == 0 {
			opts.Progress(ProgressUpdate{Processed: processed, Valid: res.Summary.Valid, Invalid: res.Summary.Invalid})
		}

		if !r.Valid && opts.StopOnError {
			break
		}
		if opts.MaxErrors > 0 && errTotal >= opts.MaxErrors {
			break
		}
	}

	res.Truncated = processed < len(records)
	if opts.Progress != nil {
		opts.Progress(ProgressUpdate{Processed: processed, Valid: res.Summary.Valid, Invalid: res.Summary.Invalid, Done: true})
	}
	return res
}

// validateDatasetParallel fans record validation out over opts.Workers
// goroutines. Each record's validation is independent, so no shared mutable
// accumulator is touched concurrently: workers write into their own slot of
// a preallocated results slice and the fold happens after all workers stop.
func (e *Engine) validateDatasetParallel(records []Record, reportType, subType string, opts *DatasetOptions) *DatasetResult {
	n := len(records)
	results := make([]Result, n)
	done := make([]bool, n)

	var (
		mu       sync.Mutex
		errTotal int
		halted   bool
	)
	shouldStop := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return halted
	}
	report := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		errTotal += len(r.Errors)
		if !r.Valid && opts.StopOnError {
			halted = true
		}
		if opts.MaxErrors > 0 && errTotal >= opts.MaxErrors {
			halted = true
		}
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Keep draining after a halt so the feeder never blocks.
			for i := range indices {
				if shouldStop() {
					continue
				}
				r := e.ValidateRecord(records[i], reportType, subType, &opts.Options)
				results[i] = r
				done[i] = true
				report(r)
			}
		}()
	}
	for i := 0; i < n; i++ {
		if shouldStop() {
			break
		}
		indices <- i
	}
	close(indices)
	wg.Wait()

	res := &DatasetResult{TotalRecords: n}
	processed := 0
	for i := 0; i < n; i++ {
		if !done[i] {
			continue
		}
		res.fold(i, records[i], results[i])
		processed++
	}
	res.Truncated = processed < n

	if opts.Progress != nil {
		opts.Progress(ProgressUpdate{Processed: processed, Valid: res.Summary.Valid, Invalid: res.Summary.Invalid, Done: true})
	}
	return res
}

// fold appends one record's result to the aggregate.
func (r *DatasetResult) fold(index int, original Record, res Result) {
	if res.Valid {
		r.ValidRecords = append(r.ValidRecords, AcceptedRecord{
			Index:    index,
			Record:   res.Sanitized,
			Warnings: res.Warnings,
		})
		r.Summary.Valid++
	} else {
		r.InvalidRecords = append(r.InvalidRecords, RejectedRecord{
			Index:    index,
			Record:   original,
			Errors:   res.Errors,
			Warnings: res.Warnings,
		})
		r.Summary.Invalid++
	}
	r.Summary.TotalErrors += len(res.Errors)
	r.Summary.TotalWarnings += len(res.Warnings)
}
