package idgen

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Snowflake layout: 41 bits of millisecond timestamp, 10 bits of worker id,
// 12 bits of per-millisecond sequence. Generated numbers are unique across
// workers and trend upward, which keeps them index friendly and safe to hand
// to the gateway without leaking row counts.
const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// Init sets up the default generator. Must be called before any ID is
// generated when more than one worker shares the database.
func Init(workerID int64) {
	once.Do(func() {
		if workerID < 0 || workerID > maxWorkerID {
			log.Fatalf("workerID must be between 0 and %d", maxWorkerID)
		}
		defaultGenerator = &Snowflake{
			workerID:  workerID,
			timestamp: 0,
			sequence:  0,
		}
	})
}

func NextID() int64 {
	if defaultGenerator == nil {
		Init(1)
	}
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// sequence exhausted, spin to the next millisecond
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	id := ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence

	return id
}

// GenerateTranID builds the gateway correlation key, e.g.
// SSL20240115143052_12345678. Distinct from any auto-increment key so it is
// safe to embed in redirect URLs and hand to the gateway.
func GenerateTranID() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("SSL%s%08d", timestamp, id%100000000)
}

// GenerateReceiptNo builds a reference for manually recorded cash receipts.
func GenerateReceiptNo() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("RCP%s%08d", timestamp, id%100000000)
}
