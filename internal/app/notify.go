package app

// Notifier forwards repository and dispatcher notifications to the UI.
// Notifications sent while the UI is busy are dropped once the buffer is
// full.
type Notifier struct {
	ch chan noticeMsg
}

// NewNotifier returns a Notifier with a small buffer.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan noticeMsg, 16)}
}

// Notify matches the repo and dispatch callback signature.
func (n *Notifier) Notify(message, severity string) {
	select {
	case n.ch <- noticeMsg{message: message, severity: severity}:
	default:
	}
}
