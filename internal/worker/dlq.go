package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Receipts that run out of attempts, or fail permanently, are parked in
// dead:{queue} until someone replays them by hand. The sale itself is
// already committed, so nothing here touches the ledger.
const deadLetterPrefix = "dead:"

// DeadLetter is one parked job. SaleID and GymID are lifted out of the
// receipt payload so an operator can find the sale without decoding it.
type DeadLetter struct {
	Queue    string          `json:"queue"`
	Type     string          `json:"type"`
	SaleID   string          `json:"sale_id,omitempty"`
	GymID    string          `json:"gym_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	ParkedAt time.Time       `json:"parked_at"`
}

func newDeadLetter(queue string, job Job, reason string, now time.Time) DeadLetter {
	dl := DeadLetter{
		Queue:    queue,
		Type:     job.Type,
		Payload:  job.Payload,
		Reason:   reason,
		Attempts: job.Attempts,
		ParkedAt: now.UTC(),
	}
	if job.Type == jobTypeReceipt {
		var rj ReceiptJob
		if json.Unmarshal(job.Payload, &rj) == nil {
			dl.SaleID = rj.SaleID.String()
			dl.GymID = rj.GymID.String()
		}
	}
	return dl
}

// DeadLetters reads and writes the parked jobs of every queue.
type DeadLetters struct {
	rdb *redis.Client
}

func NewDeadLetters(rdb *redis.Client) *DeadLetters {
	return &DeadLetters{rdb: rdb}
}

// Park stores the failed job. Errors are logged, not returned: a job that
// cannot be parked is lost either way.
func (d *DeadLetters) Park(ctx context.Context, queue string, job Job, reason string) {
	dl := newDeadLetter(queue, job, reason, time.Now())
	data, err := json.Marshal(dl)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dead letter: marshal failed")
		return
	}
	if err := d.rdb.LPush(ctx, deadLetterPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("sale_id", dl.SaleID).Msg("dead letter: push failed")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("sale_id", dl.SaleID).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("receipt job parked")
}

// Len is reported by /health.
func (d *DeadLetters) Len(ctx context.Context, queue string) (int64, error) {
	return d.rdb.LLen(ctx, deadLetterPrefix+queue).Result()
}
