// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api holds the error vocabulary shared by every hioload-nio package.
// It has no dependencies on the rest of the module.
package api
