package sandbox

import "errors"

//error kinds of the sandbox, every one of them aborts the current run
//the callers should test them with errors.Is, the returned errors carry the context
var (
	//ErrInvariantViolation signals a programming error: topple on a stable cell or a cell counter overflow
	ErrInvariantViolation = errors.New("invariant violation")
	//ErrIndexOutOfRange signals access to the cell outside the grid
	ErrIndexOutOfRange = errors.New("index out of range")
	//ErrConfiguration signals the invalid simulation configuration
	ErrConfiguration = errors.New("configuration error")
	//ErrExport signals that the snapshot could not be persisted
	ErrExport = errors.New("export failure")
)
