package memory

import "errors"

// ErrNotFound is returned by operations that require an existing memory
// when the id is absent from this workspace. Reads return (nil, nil)
// instead; only update-style operations surface it as an error.
var ErrNotFound = errors.New("memory not found")
