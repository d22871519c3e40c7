// Package logging builds the structured loggers every other package
// takes as a constructor argument, passed around as field-scoped
// *logrus.Logger values rather than a package-level logger.
package logging

import "github.com/sirupsen/logrus"

// New returns a JSON-formatted logrus logger. Callers attach
// per-call-site fields with logger.WithFields(logrus.Fields{...})
// rather than baking a scope into the *logrus.Logger value itself.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}
