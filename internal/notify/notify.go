// Package notify is the user-facing notification collaborator. The core
// converts every failure into a notice through this interface; nothing
// escapes as an unhandled error into the hosting page.
package notify

import "log"

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notifier surfaces a user-visible message.
type Notifier interface {
	Notify(level Level, msg string)
}

// Func adapts a plain function to the Notifier interface.
type Func func(level Level, msg string)

func (f Func) Notify(level Level, msg string) { f(level, msg) }

// LogNotifier writes notices to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(level Level, msg string) {
	log.Printf("notice [%s]: %s", level, msg)
}

// Notice is one recorded notification.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Recorder captures notices for inspection, used by tests and by the
// websocket wire to relay notices to the client.
type Recorder struct {
	Notices []Notice
}

func (r *Recorder) Notify(level Level, msg string) {
	r.Notices = append(r.Notices, Notice{Level: level, Message: msg})
}

// Drain returns the recorded notices and clears the recorder.
func (r *Recorder) Drain() []Notice {
	out := r.Notices
	r.Notices = nil
	return out
}

// Last returns the most recent notice, or a zero Notice.
func (r *Recorder) Last() Notice {
	if len(r.Notices) == 0 {
		return Notice{}
	}
	return r.Notices[len(r.Notices)-1]
}
