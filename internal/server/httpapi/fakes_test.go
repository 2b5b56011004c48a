package httpapi

import (
	"context"
	"io"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
)

// bucketlessAccounts is the real account service with the bucket upload
// left out: the avatar URL is written straight through UpdateProfile.
type bucketlessAccounts struct {
	*services.AccountService
}

func (a bucketlessAccounts) UploadAvatar(ctx context.Context, userID, filename, _ string, body io.Reader, _ int64) (*models.User, error) {
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	avatar := "http://s3/" + services.AvatarKey(userID, filename)
	return a.UpdateProfile(ctx, userID, services.ProfileInput{Avatar: &avatar})
}

// fakeTags records the arguments of the last call.
type fakeTags struct {
	userID string
	input  services.TagInput
	err    error
}

func (f *fakeTags) List(_ context.Context, userID string, _ bool) ([]*models.Tag, error) {
	f.userID = userID
	return []*models.Tag{{ID: "t-1", UserID: userID, Name: "Read"}}, f.err
}

func (f *fakeTags) Create(_ context.Context, userID string, in services.TagInput) (*models.Tag, error) {
	f.userID, f.input = userID, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Tag{ID: "t-2", UserID: userID, Name: in.Name}, nil
}

func (f *fakeTags) Update(_ context.Context, userID, id string, in services.TagInput) (*models.Tag, error) {
	f.userID, f.input = userID, in
	return &models.Tag{ID: id, UserID: userID, Name: in.Name}, f.err
}

func (f *fakeTags) Delete(_ context.Context, userID, _ string) error {
	f.userID = userID
	return f.err
}

type fakeJournals struct {
	entries []*models.JournalEntry
	r       services.Range
}

func (f *fakeJournals) Create(context.Context, string, string, services.JournalInput) (*models.JournalEntry, error) {
	return nil, nil
}

func (f *fakeJournals) Get(context.Context, string, string) (*models.JournalEntry, error) {
	return nil, apperr.NotFound("Journal entry not found")
}

func (f *fakeJournals) Update(context.Context, string, string, string, services.JournalInput) (*models.JournalEntry, error) {
	return nil, nil
}

func (f *fakeJournals) Delete(context.Context, string, string) error { return nil }

func (f *fakeJournals) List(_ context.Context, _, _ string, r services.Range, _ int) ([]*models.JournalEntry, error) {
	f.r = r
	return f.entries, nil
}

type fakeProvider struct {
	identity *oauth.Identity
	err      error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Identify(context.Context, string) (*oauth.Identity, error) {
	return p.identity, p.err
}

type denyAllStore struct{}

func (denyAllStore) Allow(string) (bool, error) { return false, nil }
