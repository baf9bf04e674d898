// package navigation keeps the terminal client's screen routing apart from the player state
package navigation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/zenithx/internal/shared"
)

// Screen identifies a top-level view.
type Screen string

const (
	Home    Screen = "home"
	Queue   Screen = "queue"
	Liked   Screen = "liked"
	Profile Screen = "profile"
)

var screens = []Screen{Home, Queue, Liked, Profile}

// Screens returns every screen in tab order.
func Screens() []Screen {
	return append([]Screen(nil), screens...)
}

// Title returns the label shown in the tab bar.
func (s Screen) Title() string {
	switch s {
	case Queue:
		return "Up Next"
	case Liked:
		return "Liked Songs"
	default:
		return strings.ToUpper(string(s[:1])) + string(s[1:])
	}
}

// ParseScreen maps a name to a screen.
func ParseScreen(name string) (Screen, error) {
	for _, s := range screens {
		if string(s) == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", shared.ErrUnknownScreen, name)
}

// Router tracks the active screen. It is safe for concurrent use.
type Router struct {
	mu     sync.RWMutex
	active Screen
}

// NewRouter starts on [Home].
func NewRouter() *Router {
	return &Router{active: Home}
}

// Active returns the current screen.
func (r *Router) Active() Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Show switches to s. Unknown screens leave the router unchanged.
func (r *Router) Show(s Screen) error {
	parsed, err := ParseScreen(string(s))
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.active = parsed
	r.mu.Unlock()
	return nil
}

// Next moves one tab right, wrapping around.
func (r *Router) Next() Screen {
	return r.step(1)
}

// Prev moves one tab left, wrapping around.
func (r *Router) Prev() Screen {
	return r.step(-1)
}

func (r *Router) step(delta int) Screen {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := 0
	for j, s := range screens {
		if s == r.active {
			i = j
			break
		}
	}
	n := len(screens)
	r.active = screens[((i+delta)%n+n)%n]
	return r.active
}
