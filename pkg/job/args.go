package job

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueDefault is the queue maintenance jobs run on unless WithQueue is set.
const QueueDefault = "friendlyid"

// BackfillArgs assigns slugs to every record of Type that has none.
type BackfillArgs struct {
	Type string `json:"type"`

	// BatchSize is passed to friendlyid.WithBatchSize. Zero uses the
	// engine default.
	BatchSize int `json:"batch_size,omitempty"`
}

func (BackfillArgs) Kind() string { return "friendlyid:backfill" }

// InsertOpts makes backfills of one type unique while they are pending.
func (BackfillArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{UniqueOpts: river.UniqueOpts{ByArgs: true}}
}

// PurgeArgs removes slug history of Type. A zero OlderThan purges all of it,
// otherwise entries older than OlderThan are removed and each record's
// current slug is kept.
type PurgeArgs struct {
	Type      string        `json:"type"`
	OlderThan time.Duration `json:"older_than,omitempty"`
}

func (PurgeArgs) Kind() string { return "friendlyid:purge" }

func (PurgeArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{UniqueOpts: river.UniqueOpts{ByArgs: true}}
}
