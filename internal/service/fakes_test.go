package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements the user, post and comment repositories in memory.
// calls counts every method invocation so tests can assert that a refused
// request never reached storage.

type fakeStore struct {
	users    []model.User
	posts    []model.BlogPost
	comments []model.Comment
	calls    int

	// set to a non-nil error to simulate a database failure
	findErr error
	// raceEmail makes CreateUser fail as if a concurrent registration with
	// this email had committed first.
	raceEmail string
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.calls++
	if user.Email == f.raceEmail {
		return apperror.AlreadyRegistered()
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.AlreadyRegistered()
		}
	}
	user.ID = int64(len(f.users) + 1)
	user.CreatedAt = time.Now()
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.calls++
	for _, u := range f.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.calls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) userName(id int64) string {
	for _, u := range f.users {
		if u.ID == id {
			return u.Name
		}
	}
	return ""
}

func (f *fakeStore) CreatePost(_ context.Context, post *model.BlogPost) error {
	f.calls++
	for _, p := range f.posts {
		if p.Title == post.Title {
			return apperror.DuplicateTitle(post.Title)
		}
	}
	var maxID int64
	for _, p := range f.posts {
		maxID = max(maxID, p.ID)
	}
	post.ID = maxID + 1
	f.posts = append(f.posts, *post)
	return nil
}

func (f *fakeStore) GetPost(_ context.Context, id int64) (*model.BlogPost, error) {
	f.calls++
	for _, p := range f.posts {
		if p.ID == id {
			found := p
			found.AuthorName = f.userName(p.AuthorID)
			return &found, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (f *fakeStore) ListPosts(_ context.Context) ([]model.BlogPost, error) {
	f.calls++
	out := make([]model.BlogPost, 0, len(f.posts))
	for _, p := range f.posts {
		p.AuthorName = f.userName(p.AuthorID)
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdatePost(_ context.Context, post *model.BlogPost) error {
	f.calls++
	idx := -1
	for i, p := range f.posts {
		if p.ID == post.ID {
			idx = i
		} else if p.Title == post.Title {
			return apperror.DuplicateTitle(post.Title)
		}
	}
	if idx < 0 {
		return apperror.NotFound("post", post.ID)
	}
	stored := &f.posts[idx]
	stored.Title = post.Title
	stored.Subtitle = post.Subtitle
	stored.Body = post.Body
	stored.ImgURL = post.ImgURL
	return nil
}

func (f *fakeStore) DeletePost(_ context.Context, id int64) error {
	f.calls++
	idx := -1
	for i, p := range f.posts {
		if p.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return apperror.NotFound("post", id)
	}
	f.posts = append(f.posts[:idx], f.posts[idx+1:]...)

	kept := f.comments[:0]
	for _, c := range f.comments {
		if c.BlogPostID != id {
			kept = append(kept, c)
		}
	}
	f.comments = kept
	return nil
}

func (f *fakeStore) CreateComment(_ context.Context, comment *model.Comment) error {
	f.calls++
	comment.ID = int64(len(f.comments) + 1)
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeStore) ListCommentsByPost(_ context.Context, postID int64) ([]model.Comment, error) {
	f.calls++
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.BlogPostID == postID {
			c.AuthorName = f.userName(c.AuthorID)
			out = append(out, c)
		}
	}
	return out, nil
}

// =========================================================================
// HELPERS
// =========================================================================

var (
	admin = auth.Identity{UserID: auth.AdminUserID}
	alice = auth.Identity{UserID: 2}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(t *testing.T, store *fakeStore) *AuthService {
	t.Helper()
	// Cost 4 is bcrypt minimum, which keeps tests fast.
	return NewAuthService(store, auth.NewPasswordServiceWithCost(4), testLogger())
}

func newTestContentService(t *testing.T, store *fakeStore) *ContentService {
	t.Helper()
	svc := NewContentService(store, store, testLogger())
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 24, 15, 4, 5, 0, time.UTC)
	}
	return svc
}

// seedUsers registers the admin (id 1) and Alice (id 2).
func seedUsers(t *testing.T, store *fakeStore) {
	t.Helper()
	svc := newTestAuthService(t, store)
	if _, err := svc.Register(context.Background(), "Admin", "admin@example.com", "adminpw"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := svc.Register(context.Background(), "Alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("seed alice: %v", err)
	}
}
