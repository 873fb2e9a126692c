package shareclient

import (
	"context"
	"errors"
	"sync"
)

// State is a phase of the share viewing flow.
type State int

const (
	StateLoading State = iota
	StatePasswordRequired
	StateAlbumView
	StateExpired
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePasswordRequired:
		return "password_required"
	case StateAlbumView:
		return "album_view"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-facing messages of the controller.
const (
	MessageNotFound          = "Share link not found"
	MessageIncorrectPassword = "Incorrect password. Please try again."
	MessageLoadFailure       = "Could not load the album. Please check your connection and try again."
)

// ErrBusy is returned when a request is already in flight. The overlapping
// call causes no state change.
var ErrBusy = errors.New("a request is already in flight")

// ErrInvalidTransition is returned when an operation is called from the wrong
// state.
var ErrInvalidTransition = errors.New("operation not allowed in current state")

// Snapshot is an immutable view of the controller.
type Snapshot struct {
	State    State
	Album    *SharedAlbum
	Message  string
	SortMode string
}

// Controller drives the share viewing state machine. At most one request is
// in flight; the verified password lives in memory only and is cleared on
// every transition away from AlbumView.
type Controller struct {
	client     *Client
	identifier string

	mu       sync.Mutex
	busy     bool
	state    State
	album    *SharedAlbum
	message  string
	sortMode string
	password string
}

// NewController creates a controller for one share identifier, starting in
// Loading.
func NewController(client *Client, identifier string) *Controller {
	return &Controller{
		client:     client,
		identifier: identifier,
		state:      StateLoading,
		sortMode:   SortCaptured,
	}
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:    c.state,
		Album:    c.album,
		Message:  c.message,
		SortMode: c.sortMode,
	}
}

// Password returns the retained password, for building asset and download
// URLs. Empty outside AlbumView.
func (c *Controller) Password() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.password
}

// begin claims the single in-flight slot.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// transition applies a new state. The password survives only in AlbumView.
func (c *Controller) transition(state State, album *SharedAlbum, message, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.album = album
	c.message = message
	if state == StateAlbumView {
		c.password = password
	} else {
		c.password = ""
	}
}

// Load probes the share link and either shows the album or asks for a
// password. Network failures land in Failed; Retry re-runs this.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	info, err := c.client.GetInfo(ctx, c.identifier)
	if err != nil {
		c.transitionError(err)
		return nil
	}

	if info.IsPasswordProtected {
		c.transition(StatePasswordRequired, nil, "", "")
		return nil
	}

	c.accessAndApply(ctx, "")
	return nil
}

// SubmitPassword attempts an access with the given password. The password is
// retained only when the server grants the album.
func (c *Controller) SubmitPassword(ctx context.Context, password string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.accessAndApply(ctx, password)
	return nil
}

// ChangeSortOrder re-fetches the album in the given order using the retained
// password. Only valid from AlbumView. The preference sticks even if the
// refresh fails.
func (c *Controller) ChangeSortOrder(ctx context.Context, mode string) error {
	if mode != SortCaptured && mode != SortUploaded {
		return errors.New("invalid sort mode: " + mode)
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != StateAlbumView {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.busy = true
	c.sortMode = mode
	password := c.password
	c.mu.Unlock()
	defer c.end()

	c.accessAndApply(ctx, password)
	return nil
}

// Retry re-runs Load from the Failed state.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateFailed {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.state = StateLoading
	c.message = ""
	c.mu.Unlock()

	return c.Load(ctx)
}

// accessAndApply performs one access call and applies the resulting
// transition. Caller holds the in-flight slot.
func (c *Controller) accessAndApply(ctx context.Context, password string) {
	c.mu.Lock()
	sortMode := c.sortMode
	c.mu.Unlock()

	album, err := c.client.Access(ctx, c.identifier, password, sortMode)
	if err != nil {
		c.transitionError(err)
		return
	}

	// the server is the source of truth on whether a password is still needed
	if album.RequiresPassword {
		message := ""
		if password != "" {
			message = MessageIncorrectPassword
		}
		c.transition(StatePasswordRequired, nil, message, "")
		return
	}

	c.transition(StateAlbumView, album, "", password)
}

// transitionError maps a client error to a terminal or recoverable state.
func (c *Controller) transitionError(err error) {
	var expired *ExpiredError
	var unauthorized *UnauthorizedError

	switch {
	case errors.Is(err, ErrNotFound):
		c.transition(StateFailed, nil, MessageNotFound, "")
	case errors.As(err, &expired):
		c.transition(StateExpired, nil, expired.Detail, "")
	case errors.As(err, &unauthorized):
		c.transition(StatePasswordRequired, nil, MessageIncorrectPassword, "")
	default:
		c.transition(StateFailed, nil, MessageLoadFailure, "")
	}
}
