// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrInputMissing is returned when a required export file does not exist.
var ErrInputMissing = errors.New("input file missing")
