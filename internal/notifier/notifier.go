package notifier

// Notifier defines the interface for delivering a garage report
type Notifier interface {
	// Notify delivers the rendered report
	Notify(report string) error
}
