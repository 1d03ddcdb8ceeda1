package ports

// Notifier is the non-blocking, user-facing side channel used for
// recoverable problems (failed validation, failed lookups).
type Notifier interface {
	NotifyError(title, message string)
	NotifyInfo(title, message string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyError(title, message string) {}
func (NopNotifier) NotifyInfo(title, message string)  {}

// Notification is one recorded message.
type Notification struct {
	Error   bool
	Title   string
	Message string
}

// RecordingNotifier keeps every notification in order.
// Hosts use it to drain messages after a transition; tests use it to assert on them.
type RecordingNotifier struct {
	Notifications []Notification
}

func (r *RecordingNotifier) NotifyError(title, message string) {
	r.Notifications = append(r.Notifications, Notification{Error: true, Title: title, Message: message})
}

func (r *RecordingNotifier) NotifyInfo(title, message string) {
	r.Notifications = append(r.Notifications, Notification{Title: title, Message: message})
}

// Last returns the most recent notification.
func (r *RecordingNotifier) Last() (Notification, bool) {
	if len(r.Notifications) == 0 {
		return Notification{}, false
	}
	return r.Notifications[len(r.Notifications)-1], true
}

// Drain returns and clears the recorded notifications.
func (r *RecordingNotifier) Drain() []Notification {
	out := r.Notifications
	r.Notifications = nil
	return out
}
