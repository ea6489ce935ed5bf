package registry

import "errors"

// ErrPermissionDenied means the actor is authenticated but does not own the
// item an owner-scoped mutation targets.
var ErrPermissionDenied = errors.New("permission denied")
