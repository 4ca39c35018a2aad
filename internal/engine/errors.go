package engine

import (
	"fmt"
)

// ErrorKind classifies engine failures for fallback dispatch.
type ErrorKind string

const (
	KindIndexMissing       ErrorKind = "index_missing"
	KindTimeout            ErrorKind = "timeout"
	KindConnection         ErrorKind = "connection"
	KindQueryParsing       ErrorKind = "query_parsing"
	KindClusterBlocked     ErrorKind = "cluster_blocked"
	KindPhaseExecution     ErrorKind = "phase_execution"
	KindResourceExhaustion ErrorKind = "resource_exhaustion"
	KindUnknown            ErrorKind = "unknown"
)

// Error is a classified engine failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classified kind of an engine error, or KindUnknown for
// anything else.
func KindOf(err error) ErrorKind {
	var engErr *Error
	if ok := asEngineError(err, &engErr); ok {
		return engErr.Kind
	}
	return KindUnknown
}
