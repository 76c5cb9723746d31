package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindRateLimited         ErrorKind = "RateLimited"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindCredentialMissing   ErrorKind = "CredentialMissing"
	KindConnectivity        ErrorKind = "ConnectivityError"
	KindRemoteRejected      ErrorKind = "RemoteRejected"
	KindMisconfigured       ErrorKind = "Misconfigured"
	KindInternal            ErrorKind = "Internal"
)

// Error is a classified failure from one pipeline stage.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf classifies err. Unclassified errors are Internal, except transport
// failures and timeouts which count as connectivity problems.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isTransportError(err) {
		return KindConnectivity
	}
	return KindInternal
}

// IsFallbackable reports whether a publish failure may be retried once over
// the next protocol.
func IsFallbackable(err error) bool {
	switch KindOf(err) {
	case KindConnectivity, KindUpstreamUnavailable:
		return true
	}
	return false
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
