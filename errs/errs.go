// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errs defines the small set of error kinds the build and query
// paths distinguish, per the error handling design: recoverable ingest
// problems are counted, not returned; everything else carries a Kind so
// callers can decide whether to retry, abort, or log at debug.
package errs

import "fmt"

// Kind classifies a pipeline error for the purposes of retry/abort/report
// decisions.
type Kind int

const (
	// InvalidInput is a malformed sentence block; the ingester skips it
	// and increments a counter, the run continues.
	InvalidInput Kind = iota
	// MissingArtifact is a required file absent at open time; fatal.
	MissingArtifact
	// CorruptArtifact is a bad magic/version on an existing file; fatal.
	CorruptArtifact
	// OversizedEntry is a lemma/POS exceeding its on-disk width; the
	// collocate (or headword) is dropped at write time and logged.
	OversizedEntry
	// TransientIO is a failed read or write of a build or query
	// artifact. Nothing in this module retries it: the operation that
	// hit it fails and returns the error.
	TransientIO
	// ClientGone means the caller went away mid-response; logged at
	// debug, never reported as a failure.
	ClientGone
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case MissingArtifact:
		return "missing_artifact"
	case CorruptArtifact:
		return "corrupt_artifact"
	case OversizedEntry:
		return "oversized_entry"
	case TransientIO:
		return "transient_io"
	case ClientGone:
		return "client_gone"
	default:
		return "unknown"
	}
}

// PipelineError pairs a Kind with the underlying cause, so callers can
// branch on Kind without parsing error strings.
type PipelineError struct {
	Kind Kind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a PipelineError of the given kind wrapping err.
func New(kind Kind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

// Newf creates a PipelineError of the given kind from a formatted message.
func Newf(kind Kind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of err if it (or something it wraps) is a
// *PipelineError, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var pe *PipelineError
	if ok := asPipelineError(err, &pe); ok {
		return pe.Kind, true
	}
	return 0, false
}

func asPipelineError(err error, target **PipelineError) bool {
	for err != nil {
		if pe, ok := err.(*PipelineError); ok {
			*target = pe
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
