package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind is a session milestone.
type Kind int

const (
	LogIn Kind = iota
	LogOut
	Crash
	BadLogin
	PlayerDeathAccept
)

func (k Kind) String() string {
	switch k {
	case LogIn:
		return "login"
	case LogOut:
		return "logout"
	case Crash:
		return "crash"
	case BadLogin:
		return "bad_login"
	case PlayerDeathAccept:
		return "death_accept"
	default:
		return "unknown"
	}
}

// Notification is advisory; nothing in the relay waits on it.
type Notification struct {
	Kind      Kind
	Message   string
	SessionID uuid.UUID
	At        time.Time
}

// Notifier receives session notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Notifiers fans a notification out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, x := range ns {
		x.Notify(n)
	}
}
