package badger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key Namespace Design
// ====================
//
// Data Type        Prefix   Key Format                    Value
// ==================================================================
// Job              "j:"     j:<id>                        Job (JSON)
// Ready Index      "r:"     r:<readyAt ns %020d>:<id>     empty
// Lease            "l:"     l:<id>                        lease expiry (ns, decimal)
// Dead Index       "d:"     d:<id>                        empty
// Completed Count  "c:"     c:completed                   count (decimal)
//
// Every queued job has exactly one ready key, every processing job exactly
// one lease key, every dead job exactly one dead key. A job moves between
// indexes inside a single transaction, so the indexes never disagree with
// the job's State.
//
// The zero-padded timestamp makes lexical order equal ReadyAt order; the
// first ready key is the next job to lease.

const (
	prefixJob   = "j:"
	prefixReady = "r:"
	prefixLease = "l:"
	prefixDead  = "d:"

	keyCompleted = "c:completed"
)

func keyJob(id string) []byte {
	return []byte(prefixJob + id)
}

func keyReady(readyAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixReady, readyAt.UnixNano(), id))
}

// parseReadyKey splits a ready key into its timestamp and job id.
func parseReadyKey(key []byte) (time.Time, string, error) {
	rest := strings.TrimPrefix(string(key), prefixReady)
	ts, id, ok := strings.Cut(rest, ":")
	if !ok {
		return time.Time{}, "", fmt.Errorf("malformed ready key %q", key)
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed ready key %q: %w", key, err)
	}
	return time.Unix(0, nanos), id, nil
}

func keyLease(id string) []byte {
	return []byte(prefixLease + id)
}

func keyDead(id string) []byte {
	return []byte(prefixDead + id)
}
