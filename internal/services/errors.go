package services

import "errors"

// Chat pipeline error taxonomy. All of these are caught at the orchestrator
// boundary and converted into exactly one client-visible error event; none
// are retried automatically and none crash the process. Internal detail is
// logged, never sent to the client.
var (
	// ErrRewriteFailed: the standalone-query rewrite call failed. The request
	// fails rather than silently searching with the raw message.
	ErrRewriteFailed = errors.New("query rewrite failed")
	// ErrEvidenceFetchFailed: the web search call failed (network or non-2xx).
	ErrEvidenceFetchFailed = errors.New("evidence fetch failed")
	// ErrUpstreamStream: opening or reading the upstream token stream failed.
	ErrUpstreamStream = errors.New("upstream stream failed")
	// ErrPersistence: a conversation store write or read failed.
	ErrPersistence = errors.New("persistence failed")
)
