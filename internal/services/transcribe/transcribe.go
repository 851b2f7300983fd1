// Package transcribe holds the two speech-to-text provider strategies. Free
// accounts use a callback provider that notifies a webhook when the job
// finishes; paid accounts use a batch provider whose jobs are polled by a
// background runner. The strategies stay separate code paths on purpose.
package transcribe

import "context"

// JobState is a poll outcome. Only three states are meaningful: still
// running, completed, or failed.
type JobState string

const (
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Result is the outcome of polling a batch job. Transcript is set only when
// State is JobCompleted.
type Result struct {
	State      JobState
	Transcript string
}

// CallbackProvider submits fire-and-forget jobs that report back through a
// webhook carrying the job outcome.
type CallbackProvider interface {
	// Submit starts a job for a publicly reachable media URL and returns the
	// provider's job id.
	Submit(ctx context.Context, mediaURL, webhookURL string) (string, error)
	// FetchTranscript retrieves the finished transcript text for a job.
	FetchTranscript(ctx context.Context, jobID string) (string, error)
}

// PolledProvider submits jobs that must be re-checked until they settle.
type PolledProvider interface {
	// Start begins transcription of an object already in the bucket and
	// returns the provider's job id.
	Start(ctx context.Context, objectKey string) (string, error)
	// Poll reports the current state of a job, including the transcript once
	// completed.
	Poll(ctx context.Context, jobID string) (*Result, error)
}
