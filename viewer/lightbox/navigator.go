package lightbox

import (
	"errors"
	"sync"
	"time"

	"github.com/nerith/photofold/viewer/shareclient"
)

// SlideshowInterval is the auto-advance delay.
const SlideshowInterval = 5 * time.Second

// ErrIndexOutOfRange is returned by Open for an invalid index.
var ErrIndexOutOfRange = errors.New("photo index out of range")

// Timer is a scheduled slideshow step.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules fn after d. Injectable so tests can fire steps
// manually.
type TimerFactory func(d time.Duration, fn func()) Timer

func defaultTimerFactory(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithTimerFactory overrides the slideshow scheduler.
func WithTimerFactory(factory TimerFactory) Option {
	return func(n *Navigator) {
		n.newTimer = factory
	}
}

// Navigator drives a fullscreen viewer over an ordered photo list. While
// open, the current index is always within [0, len).
type Navigator struct {
	mu       sync.Mutex
	photos   []*shareclient.SharedPhoto
	open     bool
	current  int
	newTimer TimerFactory

	slideshowOn  bool
	slideshowGen int // invalidates stale timer fires
	timer        Timer
}

// NewNavigator creates a closed navigator over photos.
func NewNavigator(photos []*shareclient.SharedPhoto, opts ...Option) *Navigator {
	n := &Navigator{
		photos:   photos,
		newTimer: defaultTimerFactory,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Open shows the photo at index i.
func (n *Navigator) Open(i int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if i < 0 || i >= len(n.photos) {
		return ErrIndexOutOfRange
	}
	n.open = true
	n.current = i
	return nil
}

// Close hides the viewer and stops any slideshow.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopSlideshowLocked()
	n.open = false
}

// IsOpen reports whether the viewer is showing.
func (n *Navigator) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

// Current returns the current index and photo. ok is false when closed.
func (n *Navigator) Current() (int, *shareclient.SharedPhoto, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return 0, nil, false
	}
	return n.current, n.photos[n.current], true
}

// Next advances to the next photo, wrapping at the end. Manual navigation
// stops the slideshow.
func (n *Navigator) Next() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return
	}
	n.stopSlideshowLocked()
	n.current = (n.current + 1) % len(n.photos)
}

// Prev steps back to the previous photo, wrapping at the start. Manual
// navigation stops the slideshow.
func (n *Navigator) Prev() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return
	}
	n.stopSlideshowLocked()
	n.current = (n.current - 1 + len(n.photos)) % len(n.photos)
}

// HandleDeletion removes the photo at originalIndex and keeps the viewer
// pointing at a sensible neighbor. Deleting the sole remaining photo closes
// the viewer.
func (n *Navigator) HandleDeletion(originalIndex int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if originalIndex < 0 || originalIndex >= len(n.photos) {
		return
	}

	n.photos = append(n.photos[:originalIndex], n.photos[originalIndex+1:]...)

	if len(n.photos) == 0 {
		n.stopSlideshowLocked()
		n.open = false
		n.current = 0
		return
	}

	if !n.open {
		return
	}

	if originalIndex <= n.current && n.current > 0 {
		n.current--
	}
	if n.current >= len(n.photos) {
		n.current = len(n.photos) - 1
	}
}

// ToggleSlideshow starts or stops the 5s auto-advance. A no-op when closed or
// when the current item is a video.
func (n *Navigator) ToggleSlideshow() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.open || n.photos[n.current].IsVideo {
		return
	}

	if n.slideshowOn {
		n.stopSlideshowLocked()
		return
	}

	n.slideshowOn = true
	n.scheduleLocked()
}

// SlideshowActive reports whether the slideshow is running.
func (n *Navigator) SlideshowActive() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.slideshowOn
}

// scheduleLocked arms the next slideshow step.
func (n *Navigator) scheduleLocked() {
	gen := n.slideshowGen
	n.timer = n.newTimer(SlideshowInterval, func() {
		n.slideshowStep(gen)
	})
}

// slideshowStep advances past videos and re-arms. Stale fires from a stopped
// slideshow are ignored via the generation counter.
func (n *Navigator) slideshowStep(gen int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.slideshowGen || !n.slideshowOn || !n.open {
		return
	}

	next := n.nextNonVideoLocked()
	if next < 0 {
		n.stopSlideshowLocked()
		return
	}
	n.current = next
	n.scheduleLocked()
}

// nextNonVideoLocked returns the index of the next non-video photo after
// current, wrapping, or -1 when every other photo is a video.
func (n *Navigator) nextNonVideoLocked() int {
	length := len(n.photos)
	for step := 1; step <= length; step++ {
		i := (n.current + step) % length
		if !n.photos[i].IsVideo {
			return i
		}
	}
	return -1
}

// stopSlideshowLocked disarms the timer on every exit path.
func (n *Navigator) stopSlideshowLocked() {
	n.slideshowGen++
	n.slideshowOn = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
