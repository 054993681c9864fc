package models

import (
	"slices"
	"time"
)

// Report is the time-ordered set of stage records for one unit.
// It is not modified after construction; accessors return copies.
type Report struct {
	serialNumber string
	records      []StageRecord
}

// NewReport wraps records that are already in chronological order.
func NewReport(serialNumber string, records []StageRecord) *Report {
	cp := make([]StageRecord, len(records))
	for i, r := range records {
		cp[i] = r.Clone()
	}
	return &Report{serialNumber: serialNumber, records: cp}
}

// SerialNumber returns the unit identifier the report was built for.
func (r *Report) SerialNumber() string { return r.serialNumber }

// Len returns the number of records.
func (r *Report) Len() int { return len(r.records) }

// IsEmpty reports whether no records were found.
func (r *Report) IsEmpty() bool { return len(r.records) == 0 }

// Records returns copies of the records in order.
func (r *Report) Records() []StageRecord {
	out := make([]StageRecord, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Clone()
	}
	return out
}

// FirstScanned returns the transactionTime of the earliest record.
func (r *Report) FirstScanned() (any, bool) {
	if len(r.records) == 0 {
		return nil, false
	}
	v, ok := r.records[0][FieldTransactionTime]
	return v, ok
}

// SortChronologically orders records by transactionTime, oldest first.
// Records with equal timestamps keep their relative order. Every record must
// carry a usable transactionTime; the slice is left untouched otherwise.
func SortChronologically(records []StageRecord) error {
	type keyed struct {
		at  time.Time
		rec StageRecord
	}
	keys := make([]keyed, len(records))
	for i, rec := range records {
		at, err := rec.TransactionTime()
		if err != nil {
			return err
		}
		keys[i] = keyed{at: at, rec: rec}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		return a.at.Compare(b.at)
	})

	for i, k := range keys {
		records[i] = k.rec
	}
	return nil
}
