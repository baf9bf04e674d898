package session

import (
	"errors"
	"testing"

	"github.com/desertthunder/zenithx/internal/models"
	tu "github.com/desertthunder/zenithx/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(queue ...string) *Session {
	s := New()
	s.User = &User{ID: "u1", Token: "tok"}
	s.Queue = tu.Tracks(queue...)
	return s
}

func TestSelectTrack(t *testing.T) {
	t.Run("appends when nothing is current", func(t *testing.T) {
		s := signedIn("a", "b")
		fx := s.SelectTrack(tu.Tracks("c")[0])

		assert.Equal(t, []string{"a", "b", "c"}, tu.IDs(s.Queue))
		assert.Equal(t, 2, s.Current)
		require.NotNil(t, fx.Play)
		assert.Equal(t, "c", fx.Play.ID)
		assert.Equal(t, []models.Field{models.FieldQueue}, fx.Persist)
		assert.Equal(t, StatusPlaying, s.Status)
	})

	t.Run("inserts after the current track", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 0
		s.SelectTrack(tu.Tracks("x")[0])

		assert.Equal(t, []string{"a", "x", "b", "c"}, tu.IDs(s.Queue))
		assert.Equal(t, 1, s.Current)
	})

	t.Run("jumps to a queued track without persisting", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 0
		fx := s.SelectTrack(models.Track{ID: "c", Title: "different metadata"})

		assert.Equal(t, []string{"a", "b", "c"}, tu.IDs(s.Queue))
		assert.Equal(t, 2, s.Current)
		assert.Empty(t, fx.Persist)
		require.NotNil(t, fx.Play)
	})

	t.Run("does not persist while signed out", func(t *testing.T) {
		s := New()
		fx := s.SelectTrack(tu.Tracks("a")[0])
		assert.Equal(t, 0, s.Current)
		assert.Empty(t, fx.Persist)
	})

	t.Run("ignores tracks without id", func(t *testing.T) {
		s := signedIn()
		assert.True(t, s.SelectTrack(models.Track{Title: "nope"}).IsZero())
		assert.Empty(t, s.Queue)
	})
}

func TestPlayNext(t *testing.T) {
	t.Run("wraps around", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 2
		fx := s.PlayNext(false)
		assert.Equal(t, 0, s.Current)
		assert.Equal(t, "a", fx.Play.ID)
		assert.Empty(t, fx.Persist)
	})

	t.Run("cycles back to the start after length skips", func(t *testing.T) {
		for n := 1; n <= 5; n++ {
			ids := []string{"a", "b", "c", "d", "e"}[:n]
			for start := range n {
				s := signedIn(ids...)
				s.Current = start
				for range n {
					s.PlayNext(false)
				}
				assert.Equal(t, start, s.Current, "n=%d start=%d", n, start)
			}
		}
	})

	t.Run("starts at the first track when nothing is current", func(t *testing.T) {
		s := signedIn("a", "b")
		s.PlayNext(false)
		assert.Equal(t, 0, s.Current)
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		s := signedIn()
		assert.True(t, s.PlayNext(false).IsZero())
		assert.True(t, s.PlayPrevious().IsZero())
		assert.Equal(t, NoTrack, s.Current)
	})

	t.Run("autoplay asks for a related track", func(t *testing.T) {
		s := signedIn("a", "b")
		s.Current = 0
		fx := s.PlayNext(true)
		assert.Equal(t, "a", fx.FindRelated)
		assert.Nil(t, fx.Play)
		assert.Equal(t, 0, s.Current)
	})

	t.Run("autoplay without current track is a no-op", func(t *testing.T) {
		s := signedIn("a")
		assert.True(t, s.PlayNext(true).IsZero())
	})
}

func TestResolveRelated(t *testing.T) {
	t.Run("appends and plays a new track", func(t *testing.T) {
		s := signedIn("a", "b")
		s.Current = 0
		next := tu.Tracks("r")[0]
		fx := s.ResolveRelated("a", &next)

		assert.Equal(t, []string{"a", "b", "r"}, tu.IDs(s.Queue))
		assert.Equal(t, 2, s.Current)
		assert.Equal(t, "r", fx.Play.ID)
		assert.Equal(t, []models.Field{models.FieldQueue}, fx.Persist)
	})

	t.Run("jumps to an already queued track", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 2
		next := tu.Tracks("a")[0]
		fx := s.ResolveRelated("c", &next)

		assert.Equal(t, []string{"a", "b", "c"}, tu.IDs(s.Queue))
		assert.Equal(t, 0, s.Current)
		assert.Empty(t, fx.Persist)
	})

	t.Run("no result leaves the queue alone", func(t *testing.T) {
		s := signedIn("a")
		s.Current = 0
		assert.True(t, s.ResolveRelated("a", nil).IsZero())
		assert.Equal(t, []string{"a"}, tu.IDs(s.Queue))
	})

	t.Run("ignores a lookup the user moved past", func(t *testing.T) {
		s := signedIn("a", "b")
		s.Current = 1
		next := tu.Tracks("r")[0]
		assert.True(t, s.ResolveRelated("a", &next).IsZero())
		assert.Len(t, s.Queue, 2)
	})
}

func TestPlayPrevious(t *testing.T) {
	s := signedIn("a", "b", "c")
	s.Current = 0
	s.PlayPrevious()
	assert.Equal(t, 2, s.Current)
	s.PlayPrevious()
	assert.Equal(t, 1, s.Current)

	s.Current = NoTrack
	s.PlayPrevious()
	assert.Equal(t, 2, s.Current)
}

func TestRemoveFromQueue(t *testing.T) {
	t.Run("removing the current track stops playback", func(t *testing.T) {
		s := signedIn("a")
		s.Current = 0
		fx := s.RemoveFromQueue(0)

		assert.Empty(t, s.Queue)
		assert.Equal(t, NoTrack, s.Current)
		assert.True(t, fx.Stop)
		assert.Nil(t, fx.Play)
		assert.Equal(t, []models.Field{models.FieldQueue}, fx.Persist)
	})

	t.Run("removing before the current track keeps pointing at it", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 2
		s.RemoveFromQueue(0)
		assert.Equal(t, 1, s.Current)
		track, ok := s.CurrentTrack()
		assert.True(t, ok)
		assert.Equal(t, "c", track.ID)
	})

	t.Run("removing after the current track changes nothing else", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 0
		fx := s.RemoveFromQueue(2)
		assert.Equal(t, 0, s.Current)
		assert.False(t, fx.Stop)
	})

	t.Run("out of range is ignored", func(t *testing.T) {
		s := signedIn("a")
		assert.True(t, s.RemoveFromQueue(5).IsZero())
		assert.True(t, s.RemoveFromQueue(-1).IsZero())
		assert.Len(t, s.Queue, 1)
	})

	t.Run("queue walk", func(t *testing.T) {
		s := signedIn("a", "b", "c")
		s.Current = 1

		s.RemoveFromQueue(0)
		assert.Equal(t, []string{"b", "c"}, tu.IDs(s.Queue))
		assert.Equal(t, 0, s.Current)

		s.PlayNext(false)
		assert.Equal(t, 1, s.Current)

		s.PlayPrevious()
		assert.Equal(t, 0, s.Current)
		s.PlayPrevious()
		assert.Equal(t, 1, s.Current)
	})
}

func TestToggleLike(t *testing.T) {
	t.Run("is its own inverse", func(t *testing.T) {
		s := signedIn("a", "b")
		s.LikedSongs = tu.Tracks("x", "y")
		s.Current = 1

		fx := s.ToggleLike()
		assert.Equal(t, []string{"b", "x", "y"}, tu.IDs(s.LikedSongs))
		assert.Equal(t, []models.Field{models.FieldLikedSongs}, fx.Persist)
		assert.True(t, s.IsLiked("b"))

		s.ToggleLike()
		assert.Equal(t, []string{"x", "y"}, tu.IDs(s.LikedSongs))
	})

	t.Run("unlikes from the middle", func(t *testing.T) {
		s := signedIn("y")
		s.LikedSongs = tu.Tracks("x", "y", "z")
		s.Current = 0
		s.ToggleLike()
		assert.Equal(t, []string{"x", "z"}, tu.IDs(s.LikedSongs))
	})

	t.Run("requires a current track and a user", func(t *testing.T) {
		s := signedIn("a")
		assert.True(t, s.ToggleLike().IsZero())

		s = New()
		s.Queue = tu.Tracks("a")
		s.Current = 0
		assert.True(t, s.ToggleLike().IsZero())
		assert.Empty(t, s.LikedSongs)
	})
}

func TestHydrate(t *testing.T) {
	t.Run("guards against concurrent loads", func(t *testing.T) {
		s := signedIn()
		assert.True(t, s.BeginHydrate().Hydrate)
		assert.True(t, s.IsFetching)
		assert.True(t, s.BeginHydrate().IsZero())
	})

	t.Run("requires a user", func(t *testing.T) {
		assert.True(t, New().BeginHydrate().IsZero())
	})

	t.Run("failure fails soft", func(t *testing.T) {
		s := New()
		s.Login(User{ID: "u1", Token: "tok"})
		s.FinishHydrate("tok", nil, errors.New("offline"))

		assert.Empty(t, s.Queue)
		assert.Empty(t, s.LikedSongs)
		assert.False(t, s.IsFetching)
	})

	t.Run("replaces lists and follows the current track", func(t *testing.T) {
		s := signedIn("b")
		s.Current = 0
		s.BeginHydrate()
		s.FinishHydrate("tok", &models.Document{Queue: tu.Tracks("a", "b"), LikedSongs: tu.Tracks("z")}, nil)

		assert.Equal(t, []string{"a", "b"}, tu.IDs(s.Queue))
		assert.Equal(t, []string{"z"}, tu.IDs(s.LikedSongs))
		assert.Equal(t, 1, s.Current)
		assert.False(t, s.IsFetching)
	})

	t.Run("current becomes none when its track is gone", func(t *testing.T) {
		s := signedIn("q")
		s.Current = 0
		s.FinishHydrate("tok", &models.Document{Queue: tu.Tracks("a")}, nil)
		assert.Equal(t, NoTrack, s.Current)
	})

	t.Run("drops a load for a previous login", func(t *testing.T) {
		s := signedIn()
		s.BeginHydrate()
		s.Logout()
		s.FinishHydrate("tok", &models.Document{Queue: tu.Tracks("a")}, nil)
		assert.Empty(t, s.Queue)
		assert.False(t, s.IsFetching)
	})

	t.Run("a new login hydrates while the previous load is running", func(t *testing.T) {
		s := New()
		assert.True(t, s.Login(User{ID: "a", Token: "tok-a"}).Hydrate)
		s.Logout()

		assert.True(t, s.Login(User{ID: "b", Token: "tok-b"}).Hydrate)
		assert.True(t, s.IsFetching)

		s.FinishHydrate("tok-a", &models.Document{Queue: tu.Tracks("stale")}, nil)
		assert.True(t, s.IsFetching)
		assert.Empty(t, s.Queue)

		s.FinishHydrate("tok-b", &models.Document{Queue: tu.Tracks("b1", "b2")}, nil)
		assert.False(t, s.IsFetching)
		assert.Equal(t, []string{"b1", "b2"}, tu.IDs(s.Queue))

		fx := s.SelectTrack(tu.Tracks("new")[0])
		assert.Equal(t, []string{"b1", "b2", "new"}, tu.IDs(s.Queue))
		assert.NotNil(t, fx.Play)
	})

	t.Run("switching users without logout still hydrates", func(t *testing.T) {
		s := New()
		s.Login(User{ID: "a", Token: "tok-a"})
		assert.True(t, s.Login(User{ID: "b", Token: "tok-b"}).Hydrate)
	})
}

func TestSearch(t *testing.T) {
	t.Run("blank query is a no-op", func(t *testing.T) {
		s := New()
		assert.True(t, s.BeginSearch("   ").IsZero())
		assert.False(t, s.Searching)
	})

	t.Run("stores results", func(t *testing.T) {
		s := New()
		assert.Equal(t, "lofi", s.BeginSearch(" lofi ").Search)
		s.FinishSearch("lofi", tu.Tracks("a"), nil)
		assert.False(t, s.Searching)
		assert.Equal(t, []string{"a"}, tu.IDs(s.Results))
	})

	t.Run("failure shows an error state", func(t *testing.T) {
		s := New()
		s.BeginSearch("lofi")
		s.FinishSearch("lofi", nil, errors.New("502"))
		assert.Error(t, s.SearchErr)
		assert.Empty(t, s.Results)
	})

	t.Run("discards superseded results", func(t *testing.T) {
		s := New()
		s.BeginSearch("old")
		s.BeginSearch("new")
		s.FinishSearch("old", tu.Tracks("stale"), nil)
		assert.True(t, s.Searching)
		assert.Empty(t, s.Results)
	})
}

func TestLogout(t *testing.T) {
	s := signedIn("a")
	s.LikedSongs = tu.Tracks("b")
	s.Current = 0

	fx := s.Logout()
	assert.True(t, fx.Stop)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Queue)
	assert.Empty(t, s.LikedSongs)
	assert.Equal(t, NoTrack, s.Current)
	assert.Equal(t, "", s.Token())

	s = signedIn()
	s.BeginHydrate()
	s.Logout()
	assert.False(t, s.IsFetching)
}

func TestTogglePlayback(t *testing.T) {
	s := signedIn("a")
	assert.True(t, s.TogglePlayback().IsZero())

	s.Current = 0
	s.Status = StatusPlaying
	assert.True(t, s.TogglePlayback().Pause)

	s.Status = StatusPaused
	assert.True(t, s.TogglePlayback().Resume)

	s.Status = StatusEnded
	fx := s.TogglePlayback()
	require.NotNil(t, fx.Play)
	assert.Equal(t, "a", fx.Play.ID)
}

func TestSeek(t *testing.T) {
	s := signedIn("a")
	assert.True(t, s.Seek(0.5).IsZero())

	s.Current = 0
	assert.Equal(t, 1.0, *s.Seek(3).Seek)
	assert.Equal(t, 0.0, *s.Seek(-1).Seek)
	assert.Equal(t, 0.25, *s.Seek(0.25).Seek)
}

func TestClone(t *testing.T) {
	s := signedIn("a")
	c := s.Clone()
	c.Queue[0].ID = "changed"
	c.User.Token = "other"

	assert.Equal(t, "a", s.Queue[0].ID)
	assert.Equal(t, "tok", s.User.Token)
}
