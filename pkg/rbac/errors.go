package rbac

import "errors"

// ErrPermissionDenied is returned when a user lacks the permission for an action
var ErrPermissionDenied = errors.New("permission denied")
