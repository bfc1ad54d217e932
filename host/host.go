// Package host defines the collaborators the interpreter calls into: the
// primitive operations (settings, scenes, saves, assets, ...) that scripts
// invoke but that belong to the surrounding application.
package host

import (
	"log/slog"
	"strings"
	"time"

	"github.com/LingHeChen/nodescript/value"
)

// Severity grades a message sent to the log sink or the notifier
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Level maps a severity onto a slog level
func (s Severity) Level() slog.Level {
	switch s {
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseSeverity reads "info", "warning"/"warn" or "error"; anything else is Info
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning", "warn":
		return Warning
	case "error":
		return Error
	}
	return Info
}

// ---------------------------------------------------------
// Collaborators
// ---------------------------------------------------------

// Settings is the user configuration (volume, toggles, ...)
type Settings interface {
	Bool(key string) (bool, bool)
	SetBool(key string, v bool)
	Int(key string) (int, bool)
	SetInt(key string, v int)
}

// Navigator switches scenes
type Navigator interface {
	LoadScene(name string) error
}

// Store is persistent save data (story or profile)
type Store interface {
	Get(key string) (value.Value, bool)
	Set(key string, v value.Value) error
	Delete(key string) error
}

// Assets looks up content bytes by asset path. Missing assets return an
// error wrapping fs.ErrNotExist.
type Assets interface {
	ReadAsset(path string) ([]byte, error)
}

// Progress answers level and rank queries
type Progress interface {
	LevelCompleted(level string) bool
	Rank(level string) (int, bool)
}

// Random is the random number source. *math/rand/v2.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// Notifier surfaces a message to the user
type Notifier interface {
	Notify(message string, severity Severity)
}

// Launcher performs URL/launch actions
type Launcher interface {
	OpenURL(url string) error
}

// Scheduler runs fn later, on whatever goroutine or tick the host uses
type Scheduler interface {
	After(delay time.Duration, fn func())
}

// Localizer resolves localization keys
type Localizer interface {
	Localize(key string) (string, bool)
}

// Tokens resolves {{Token}} placeholders from application state
type Tokens interface {
	Token(name string) (string, bool)
}

// Directory resolves the first segment of a reference path to the root
// receiver of a domain. Inactive or unknown domains report false.
type Directory interface {
	Domain(name string) (Receiver, bool)
}

// Host bundles the collaborators. Nil members are allowed; built-ins that
// need a missing collaborator skip.
type Host struct {
	// Version is the semantic version of the running build, e.g. "v1.4.0"
	Version string

	Settings  Settings
	Navigator Navigator
	Store     Store
	Assets    Assets
	Progress  Progress
	Random    Random
	Notifier  Notifier
	Launcher  Launcher
	Scheduler Scheduler
	Localizer Localizer
	Tokens    Tokens
	Directory Directory
}
