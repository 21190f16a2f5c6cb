// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package fib

import "errors"

// ErrInvalidPrefix is the error value for a netip.Prefix argument
// that is not IsValid, e.g. the zero Prefix. No Table method returns
// it: given an invalid prefix, methods do nothing and report absence
// through their ok/found results or an empty iterator.
var ErrInvalidPrefix = errors.New("fib: invalid prefix")
