package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkwise/internal/domain"
	"linkwise/internal/linkstore"
	"linkwise/internal/render"
	"linkwise/internal/session"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListLinks(ctx context.Context, token string) ([]domain.Link, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockAPI) CreateLink(ctx context.Context, token, url string) (domain.Link, error) {
	args := m.Called(ctx, token, url)
	return args.Get(0).(domain.Link), args.Error(1)
}

func (m *MockAPI) DeleteLink(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

type fakeProvider struct {
	signUps   int
	signIns   int
	signInErr error
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	p.signIns++
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	return session.NewUser("u1", email, session.StaticToken{Value: "tok"}), nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*session.User, error) {
	p.signUps++
	return session.NewUser("u1", email, session.StaticToken{Value: "tok"}), nil
}

func (p *fakeProvider) SignOut(ctx context.Context, user *session.User) error {
	return nil
}

type recordingView struct {
	mu       sync.Mutex
	screens  []string
	renders  [][]render.Item
	authErrs []string
	addErrs  []string
}

func (v *recordingView) ShowAuth() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screens = append(v.screens, "auth")
}

func (v *recordingView) ShowApp(email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screens = append(v.screens, "app:"+email)
}

func (v *recordingView) RenderLinks(items []render.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders = append(v.renders, items)
}

func (v *recordingView) AuthError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.authErrs = append(v.authErrs, msg)
}

func (v *recordingView) AddError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addErrs = append(v.addErrs, msg)
}

func (v *recordingView) lastRender() []render.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.renders) == 0 {
		return nil
	}
	return v.renders[len(v.renders)-1]
}

type fixture struct {
	ctrl     *Controller
	api      *MockAPI
	view     *recordingView
	provider *fakeProvider
	confirm  bool
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{api: new(MockAPI), view: &recordingView{}, provider: &fakeProvider{}, confirm: true}
	gate := session.NewGate(f.provider, logger)
	store := linkstore.New(f.api, gate, linkstore.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		return f.confirm, nil
	}), logger)
	f.ctrl = New(context.Background(), gate, store, f.view, logger)
	f.ctrl.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(f.ctrl.Close)
	return f
}

var links = []domain.Link{
	{ID: "1", URL: "https://go.dev", Title: "Go", Tags: []string{"lang"}},
	{ID: "2", URL: "https://example.com", Title: "Example", Summary: "placeholder"},
}

func TestController_StartsOnAuthScreen(t *testing.T) {
	f := setup(t)
	assert.Equal(t, []string{"auth"}, f.view.screens)
	assert.Empty(t, f.view.lastRender())
	assert.Empty(t, f.api.Calls)
}

func TestController_SignInLoadsLinks(t *testing.T) {
	f := setup(t)
	f.api.On("ListLinks", mock.Anything, "tok").Return(links, nil).Once()

	require.NoError(t, f.ctrl.SignIn(context.Background(), "a@b.c", "secret"))
	assert.Equal(t, []string{"auth", "app:a@b.c"}, f.view.screens)
	assert.Equal(t, "a@b.c", f.ctrl.Email())
	require.Len(t, f.view.lastRender(), 2)
	assert.Equal(t, "Go", f.view.lastRender()[0].Title)
	f.api.AssertNumberOfCalls(t, "ListLinks", 1)
}

func TestController_SignUpPasswordLength(t *testing.T) {
	f := setup(t)

	err := f.ctrl.SignUp(context.Background(), "a@b.c", "12345")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, []string{"Password must be at least 6 characters"}, f.view.authErrs)
	assert.Equal(t, 0, f.provider.signUps)

	f.api.On("ListLinks", mock.Anything, "tok").Return(links, nil).Once()
	require.NoError(t, f.ctrl.SignUp(context.Background(), "a@b.c", "123456"))
	assert.Equal(t, 1, f.provider.signUps)
}

func TestController_SignInFailureShowsMessage(t *testing.T) {
	f := setup(t)
	f.provider.signInErr = domain.NewAuthError("Invalid email or password", errors.New("401"))

	err := f.ctrl.SignIn(context.Background(), "a@b.c", "wrong-password")
	assert.True(t, domain.IsAuth(err))
	assert.Equal(t, []string{"Invalid email or password"}, f.view.authErrs)
	assert.Equal(t, []string{"auth"}, f.view.screens)
	assert.Empty(t, f.api.Calls)
}

func TestController_SignOutClearsListWithoutRequests(t *testing.T) {
	f := setup(t)
	f.api.On("ListLinks", mock.Anything, "tok").Return(links, nil).Once()
	require.NoError(t, f.ctrl.SignIn(context.Background(), "a@b.c", "secret"))
	calls := len(f.api.Calls)

	require.NoError(t, f.ctrl.SignOut(context.Background()))
	assert.Empty(t, f.view.lastRender())
	assert.Equal(t, "auth", f.view.screens[len(f.view.screens)-1])
	assert.Len(t, f.api.Calls, calls)

	err := f.ctrl.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotSignedIn)
	assert.Len(t, f.api.Calls, calls)
}

func TestController_AddLink(t *testing.T) {
	f := setup(t)
	f.api.On("ListLinks", mock.Anything, "tok").Return(links, nil)
	require.NoError(t, f.ctrl.SignIn(context.Background(), "a@b.c", "secret"))

	err := f.ctrl.AddLink(context.Background(), "not a url")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, []string{"Please enter a valid URL"}, f.view.addErrs)

	f.api.On("CreateLink", mock.Anything, "tok", "https://new.example").Return(domain.Link{ID: "3"}, nil).Once()
	require.NoError(t, f.ctrl.AddLink(context.Background(), "https://new.example"))
	f.api.AssertNumberOfCalls(t, "CreateLink", 1)
	f.api.AssertNumberOfCalls(t, "ListLinks", 2)
}

func TestController_DeleteLinkDeclined(t *testing.T) {
	f := setup(t)
	f.api.On("ListLinks", mock.Anything, "tok").Return(links, nil).Once()
	require.NoError(t, f.ctrl.SignIn(context.Background(), "a@b.c", "secret"))

	f.confirm = false
	require.NoError(t, f.ctrl.DeleteLink(context.Background(), "1"))
	f.api.AssertNotCalled(t, "DeleteLink", mock.Anything, mock.Anything, mock.Anything)
}

func TestController_SearchFiltersLocally(t *testing.T) {
	f := setup(t)
	f.api.On("ListLinks", mock.Anything, "tok").Return(links, nil).Once()
	require.NoError(t, f.ctrl.SignIn(context.Background(), "a@b.c", "secret"))

	f.ctrl.Search("  EXAMPLE ")
	require.Len(t, f.view.lastRender(), 1)
	assert.Equal(t, "2", f.view.lastRender()[0].ID)

	f.ctrl.Search("")
	assert.Len(t, f.view.lastRender(), 2)
	f.api.AssertNumberOfCalls(t, "ListLinks", 1)
}
