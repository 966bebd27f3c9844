package workflow

import (
	"slotbook/pkg/logger"
)

// Notifier receives the user-facing feedback the workflow emits. The
// presentation layer decides how messages are rendered; the workflow only
// distinguishes the three kinds.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier returns a Notifier that writes notifications to the
// service log.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Success(message string) {
	n.log.Info("Notification", "kind", "success", "message", message)
}

func (n *logNotifier) Error(message string) {
	n.log.Warn("Notification", "kind", "error", "message", message)
}

func (n *logNotifier) Info(message string) {
	n.log.Info("Notification", "kind", "info", "message", message)
}
