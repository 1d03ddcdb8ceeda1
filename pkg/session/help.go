package session

import "sync"

// Help is the help shown for a step, as carried in a View.
type Help struct {
	Topic string `json:"topic"`
	Text  string `json:"text,omitempty"`
}

// HelpRecorder is a ports.HelpProvider for remote hosts. It keeps the last
// requested topic until the next View picks it up.
type HelpRecorder struct {
	mu    sync.Mutex
	topic string
}

func (h *HelpRecorder) ShowHelp(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topic = topic
}

// Take returns the pending topic and clears it.
func (h *HelpRecorder) Take() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	topic := h.topic
	h.topic = ""
	return topic, topic != ""
}
