package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_IsAuthorizedInRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/rooms/r1/members/alice":
			w.WriteHeader(http.StatusOK)
		case "/internal/rooms/r1/members/bob":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	ok, err := c.IsAuthorizedInRoom(ctx, "r1", "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.IsAuthorizedInRoom(ctx, "r1", "bob")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = c.IsAuthorizedInRoom(ctx, "r2", "alice")
	require.Error(t, err)
}

func TestClient_UserLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/users/u-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"alice","avatar":"https://cdn/a.png"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	name, err := c.DisplayNameOf(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	avatar, err := c.AvatarOf(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "https://cdn/a.png", avatar)
}

func TestClient_AcceptedFriendsOf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/users/u-1/friends", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"friends":["u-2","u-3"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	friends, err := c.AcceptedFriendsOf(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, friends, 2)
}

func TestClient_SetLastSeen(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.SetLastSeen(context.Background(), "u-1", false, time.Now())
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/internal/users/u-1/presence", gotPath)
}
