// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferExhausted is returned when a SubmissionBuffer would grow past
	// its configured maximum.
	ErrBufferExhausted = errors.New("xrlayer: submission buffer exhausted")

	// ErrHandlerFailed is returned by a Handler after a fatal buffer growth
	// failure. The handler never submits again in this session.
	ErrHandlerFailed = errors.New("xrlayer: handler disabled after buffer exhaustion")

	// ErrClosed is returned by operations on a closed Registry or Handler.
	ErrClosed = errors.New("xrlayer: closed")
)

// UnknownTypeError is returned when a layer type name is not recognized.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("xrlayer: unknown layer type %q", e.Name)
}
