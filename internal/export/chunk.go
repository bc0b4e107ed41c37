// Package export slices the canonical record sequence into bounded batches
// and packages them for the downstream publishing collaborator.
package export

import "github.com/starford/othala/internal/record"

// Batch is an ordered, bounded slice of canonical records. Start and End are
// the inclusive index range in the full sequence, used for deterministic
// batch naming. A batch is immutable once produced.
type Batch struct {
	Start   int
	End     int
	Records []*record.Record
}

// Chunk partitions records into contiguous batches of at most maxSize,
// preserving order; no record is split or reordered across batches. A
// maxSize below 1 is treated as 1.
func Chunk(records []*record.Record, maxSize int) []Batch {
	if maxSize < 1 {
		maxSize = 1
	}
	var out []Batch
	for start := 0; start < len(records); start += maxSize {
		end := start + maxSize
		if end > len(records) {
			end = len(records)
		}
		out = append(out, Batch{
			Start:   start,
			End:     end - 1,
			Records: records[start:end],
		})
	}
	return out
}
