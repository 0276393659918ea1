/*
NAME
  logging.go

DESCRIPTION
  logging declares the structured logger interface used by the mpegts
  package and cmd/ts2fmp4, and a discard implementation for tests and
  callers that don't want logging.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package logging provides the Logger interface passed to this module's
// constructors, in the shape used throughout the mts encoder: a message
// string followed by alternating key/value pairs.
package logging

import (
	"log"
	"os"
)

// Logger is the structured logging interface accepted by NewAssembler and
// friends. It matches the call shape used by container/mts's encoder:
// e.log.Debug("message", "key", value, ...).
type Logger interface {
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// Discard is a Logger that drops everything. Useful in tests and for
// callers that don't care about diagnostics.
var Discard Logger = discard{}

type discard struct{}

func (discard) Debug(string, ...interface{})   {}
func (discard) Info(string, ...interface{})    {}
func (discard) Warning(string, ...interface{}) {}
func (discard) Error(string, ...interface{})   {}

// Std is a minimal Logger backed by the standard library's log package,
// writing to stderr with level prefixes. It is what cmd/ts2fmp4 uses.
type Std struct {
	l *log.Logger
}

// NewStd returns a Std logger writing to os.Stderr.
func NewStd() *Std {
	return &Std{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *Std) Debug(msg string, params ...interface{})   { s.log("debug", msg, params) }
func (s *Std) Info(msg string, params ...interface{})    { s.log("info", msg, params) }
func (s *Std) Warning(msg string, params ...interface{}) { s.log("warning", msg, params) }
func (s *Std) Error(msg string, params ...interface{})   { s.log("error", msg, params) }

func (s *Std) log(level, msg string, params []interface{}) {
	s.l.Println(append([]interface{}{level + ": " + msg}, params...)...)
}
