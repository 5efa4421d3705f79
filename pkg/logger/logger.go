// Package logger provides a context-carried logrus entry, the same shape
// used throughout the directory adapters (logger.Logger(ctx).WithField(...)).
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKeyType struct{}

var ctxKey = ctxKeyType{}

// Base is the root logger new entries are derived from. Overridable at
// process startup (e.g. to change formatter/level) before any request
// context is built.
var Base = logrus.StandardLogger()

// WithLogger returns a copy of ctx carrying entry as its logger.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey, entry)
}

// Logger returns the logrus entry attached to ctx, or a fresh entry off Base
// if none was attached.
func Logger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(Base)
}
