package shareclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeShare emulates the public share API for one link.
type fakeShare struct {
	mu        sync.Mutex
	protected bool
	password  string
	expired   string // when set, every request answers 410 with this detail
	notFound  bool

	lastSortBy    string
	accessGate    chan struct{} // when set, access blocks until closed
	accessStarted chan struct{} // signaled when an access request arrives
}

func (f *fakeShare) setExpired(detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = detail
}

func (f *fakeShare) setNotFound(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notFound = v
}

func (f *fakeShare) sortBy() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSortBy
}

func (f *fakeShare) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		protected, password := f.protected, f.password
		expired, notFound := f.expired, f.notFound
		gate := f.accessGate
		f.mu.Unlock()

		if notFound {
			detailResponse(w, http.StatusNotFound, "Share link not found")
			return
		}
		if expired != "" {
			detailResponse(w, http.StatusGone, expired)
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/info"):
			_ = json.NewEncoder(w).Encode(ShareInfo{
				IsPasswordProtected: protected,
				AlbumTitle:          "Portraits",
				PhotoCount:          2,
			})
		case strings.HasSuffix(r.URL.Path, "/access"):
			if f.accessStarted != nil {
				select {
				case f.accessStarted <- struct{}{}:
				default:
				}
			}
			if gate != nil {
				<-gate
			}
			f.mu.Lock()
			f.lastSortBy = r.URL.Query().Get("sort_by")
			f.mu.Unlock()

			var body struct {
				Password *string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			supplied := ""
			if body.Password != nil {
				supplied = *body.Password
			}

			if protected && supplied == "" {
				_ = json.NewEncoder(w).Encode(SharedAlbum{
					Title:               "Portraits",
					IsPasswordProtected: true,
					RequiresPassword:    true,
					Photos:              []*SharedPhoto{},
				})
				return
			}
			if protected && supplied != password {
				detailResponse(w, http.StatusUnauthorized, "Invalid password")
				return
			}

			_ = json.NewEncoder(w).Encode(SharedAlbum{
				Title:               "Portraits",
				PhotoCount:          2,
				IsPasswordProtected: protected,
				Photos:              []*SharedPhoto{{ID: 1}, {ID: 2}},
			})
		default:
			http.NotFound(w, r)
		}
	})
}

func newController(t *testing.T, share *fakeShare) *Controller {
	srv := httptest.NewServer(share.handler())
	t.Cleanup(srv.Close)
	return NewController(NewClient(srv.URL), "tok")
}

func TestLoad_Unprotected(t *testing.T) {
	ctrl := newController(t, &fakeShare{})

	require.NoError(t, ctrl.Load(context.Background()))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateAlbumView, snap.State)
	require.NotNil(t, snap.Album)
	assert.Len(t, snap.Album.Photos, 2)
}

func TestLoad_Protected(t *testing.T) {
	ctrl := newController(t, &fakeShare{protected: true, password: "pw"})

	require.NoError(t, ctrl.Load(context.Background()))

	snap := ctrl.Snapshot()
	assert.Equal(t, StatePasswordRequired, snap.State)
	assert.Empty(t, snap.Message)
	assert.Nil(t, snap.Album)
}

func TestLoad_NotFound(t *testing.T) {
	ctrl := newController(t, &fakeShare{notFound: true})

	require.NoError(t, ctrl.Load(context.Background()))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, MessageNotFound, snap.Message)
}

func TestLoad_Expired(t *testing.T) {
	ctrl := newController(t, &fakeShare{expired: "This share link has expired"})

	require.NoError(t, ctrl.Load(context.Background()))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateExpired, snap.State)
	assert.Equal(t, "This share link has expired", snap.Message)
}

func TestLoad_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(srv.URL)
	srv.Close() // connection refused from here on

	ctrl := NewController(client, "tok")
	require.NoError(t, ctrl.Load(context.Background()))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, MessageLoadFailure, snap.Message)
}

func TestSubmitPassword_Wrong(t *testing.T) {
	ctrl := newController(t, &fakeShare{protected: true, password: "pw"})
	require.NoError(t, ctrl.Load(context.Background()))

	require.NoError(t, ctrl.SubmitPassword(context.Background(), "nope"))

	snap := ctrl.Snapshot()
	assert.Equal(t, StatePasswordRequired, snap.State)
	assert.Equal(t, MessageIncorrectPassword, snap.Message)
	assert.Empty(t, ctrl.Password())
}

func TestSubmitPassword_Correct(t *testing.T) {
	ctrl := newController(t, &fakeShare{protected: true, password: "pw"})
	require.NoError(t, ctrl.Load(context.Background()))

	require.NoError(t, ctrl.SubmitPassword(context.Background(), "pw"))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateAlbumView, snap.State)
	require.NotNil(t, snap.Album)
	assert.Equal(t, "pw", ctrl.Password())
}

func TestSubmitPassword_Expired(t *testing.T) {
	share := &fakeShare{protected: true, password: "pw"}
	ctrl := newController(t, share)
	require.NoError(t, ctrl.Load(context.Background()))

	share.setExpired("This share link has been revoked")
	require.NoError(t, ctrl.SubmitPassword(context.Background(), "pw"))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateExpired, snap.State)
	assert.Equal(t, "This share link has been revoked", snap.Message)
	assert.Empty(t, ctrl.Password())
}

func TestChangeSortOrder(t *testing.T) {
	share := &fakeShare{protected: true, password: "pw"}
	ctrl := newController(t, share)
	require.NoError(t, ctrl.Load(context.Background()))
	require.NoError(t, ctrl.SubmitPassword(context.Background(), "pw"))

	require.NoError(t, ctrl.ChangeSortOrder(context.Background(), SortUploaded))

	snap := ctrl.Snapshot()
	assert.Equal(t, StateAlbumView, snap.State)
	assert.Equal(t, SortUploaded, snap.SortMode)
	assert.Equal(t, SortUploaded, share.sortBy())
	// the retained password keeps working without a re-prompt
	assert.Equal(t, "pw", ctrl.Password())
}

func TestChangeSortOrder_InvalidMode(t *testing.T) {
	ctrl := newController(t, &fakeShare{})
	require.NoError(t, ctrl.Load(context.Background()))

	assert.Error(t, ctrl.ChangeSortOrder(context.Background(), "alphabetical"))
}

func TestChangeSortOrder_WrongState(t *testing.T) {
	ctrl := newController(t, &fakeShare{protected: true})
	require.NoError(t, ctrl.Load(context.Background()))

	assert.ErrorIs(t, ctrl.ChangeSortOrder(context.Background(), SortUploaded), ErrInvalidTransition)
}

func TestSortPreferenceSurvivesWrongPassword(t *testing.T) {
	share := &fakeShare{protected: true, password: "pw"}
	ctrl := newController(t, share)
	require.NoError(t, ctrl.Load(context.Background()))
	require.NoError(t, ctrl.SubmitPassword(context.Background(), "pw"))
	require.NoError(t, ctrl.ChangeSortOrder(context.Background(), SortUploaded))

	require.NoError(t, ctrl.SubmitPassword(context.Background(), "wrong"))
	assert.Equal(t, SortUploaded, ctrl.Snapshot().SortMode)

	require.NoError(t, ctrl.SubmitPassword(context.Background(), "pw"))
	assert.Equal(t, SortUploaded, share.sortBy())
}

func TestRetry(t *testing.T) {
	share := &fakeShare{notFound: true}
	ctrl := newController(t, share)
	require.NoError(t, ctrl.Load(context.Background()))
	require.Equal(t, StateFailed, ctrl.Snapshot().State)

	share.setNotFound(false)
	require.NoError(t, ctrl.Retry(context.Background()))
	assert.Equal(t, StateAlbumView, ctrl.Snapshot().State)
}

func TestRetry_WrongState(t *testing.T) {
	ctrl := newController(t, &fakeShare{})
	require.NoError(t, ctrl.Load(context.Background()))

	assert.ErrorIs(t, ctrl.Retry(context.Background()), ErrInvalidTransition)
}

func TestOverlappingCallsReturnErrBusy(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	share := &fakeShare{protected: true, password: "pw", accessGate: gate, accessStarted: started}
	ctrl := newController(t, share)
	require.NoError(t, ctrl.Load(context.Background()))

	done := make(chan error, 1)
	go func() {
		done <- ctrl.SubmitPassword(context.Background(), "pw")
	}()

	// the first submission holds the in-flight slot while its request blocks
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first submission never reached the server")
	}
	assert.ErrorIs(t, ctrl.SubmitPassword(context.Background(), "other"), ErrBusy)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, "pw", ctrl.Password())
}
