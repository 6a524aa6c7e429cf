package core

import "errors"

// Error taxonomy for the pipeline. Components wrap one of these sentinels so
// the orchestrator can classify a failure with errors.Is and decide whether it
// is fatal for the run or only for the current unit.
var (
	// ErrNetwork indicates a connectivity failure, timeout, or an
	// unexpected HTTP status while talking to the news site or the TTS API.
	ErrNetwork = errors.New("network failure")

	// ErrParse indicates the fetched markup did not match the configured
	// selectors, which usually signals a site-structure change.
	ErrParse = errors.New("page structure mismatch")

	// ErrSynthesis indicates the TTS API failed for a chunk after all
	// retries were exhausted.
	ErrSynthesis = errors.New("speech synthesis failed")

	// ErrStorage indicates a filesystem write failure.
	ErrStorage = errors.New("storage failure")

	// ErrConfig indicates a missing or invalid credential or setting.
	// Always fatal for the whole run.
	ErrConfig = errors.New("invalid configuration")
)
