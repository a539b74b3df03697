// Package alert handles completion and failure notifications for long
// sweeps. Delivery is pluggable; the default implementations log or drop
// the messages.
package alert

import "go.uber.org/zap"

// Notifier is the interface for sending alert messages.
type Notifier interface {
	Send(message string) error
	Close() error
}

// NoOpNotifier is a notifier that does nothing. It is used when alerting is
// disabled.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send does nothing and returns nil.
func (n *NoOpNotifier) Send(message string) error {
	return nil
}

// Close does nothing and returns nil.
func (n *NoOpNotifier) Close() error {
	return nil
}

// LogNotifier writes alerts to the structured log. It is the default for
// CLI runs, where the operator is watching the terminal anyway.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message at warn level so it stands out from run output.
func (n *LogNotifier) Send(message string) error {
	n.logger.Warn("alert", zap.String("message", message))
	return nil
}

// Close flushes the underlying logger.
func (n *LogNotifier) Close() error {
	// Sync errors on closed stderr are expected during shutdown.
	_ = n.logger.Sync()
	return nil
}
