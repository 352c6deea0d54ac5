// Package thumbnail derives resized copies of uploaded images.
//
// The File Manager queues a Job for each image created inside a folder.
// A Pool of consumers leases jobs from the queue and hands them to a Worker,
// which writes one blob per width next to the original:
//
//	<contentId>        original
//	<contentId>_500    500px wide
//	<contentId>_250    250px wide
//	<contentId>_100    100px wide
//
// Derivatives are full overwrites of fixed ids, so a redelivered job simply
// produces the same blobs again.
package thumbnail

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Widths are the generated thumbnail widths, largest first.
var Widths = []int{500, 250, 100}

// ParseWidth maps the exact decimal spelling of a width in Widths to the
// width. "+250" and "0250" are rejected.
func ParseWidth(s string) (int, bool) {
	for _, w := range Widths {
		if s == strconv.Itoa(w) {
			return w, true
		}
	}
	return 0, false
}

// Job is the queue payload for one image.
type Job struct {
	FileID  string `json:"fileId"`
	OwnerID string `json:"ownerId"`
}

// ErrInvalidJob indicates a payload that can never be processed.
var ErrInvalidJob = errors.New("invalid thumbnail job")

// DecodeJob parses and validates a queue payload.
func DecodeJob(payload []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if job.FileID == "" {
		return Job{}, fmt.Errorf("%w: missing fileId", ErrInvalidJob)
	}
	if job.OwnerID == "" {
		return Job{}, fmt.Errorf("%w: missing ownerId", ErrInvalidJob)
	}
	return job, nil
}
