package auth

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"userhub/internal/avatar"
	"userhub/internal/logging"
	"userhub/internal/user"
)

// fakeUserRepo is an in-memory UserRepository with the same uniqueness
// semantics as the Postgres implementation.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now()
	created := *u
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.users[created.ID] = &created

	out := created
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

// fakeMailer records outgoing reset emails instead of hitting SMTP.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	to    string
	token string
}

func (m *fakeMailer) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: toEmail, token: token})
	return nil
}

func (m *fakeMailer) lastSent(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "expected at least one email to have been sent")
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	service *Service
	repo    *fakeUserRepo
	mailer  *fakeMailer
	tokens  *TokenMaker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := NewTokenMaker(testKey)
	require.NoError(t, err)

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}

	service := NewService(
		repo,
		tokens,
		mailer,
		avatar.NewProcessor(avatar.DefaultMaxBytes),
		logging.NewLogger(true),
		time.Hour,
		15*time.Minute,
	)

	return &testEnv{service: service, repo: repo, mailer: mailer, tokens: tokens}
}

// pngBytes renders a small solid PNG to use as an upload fixture.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 0x12, G: 0x7a, B: 0x45, A: 0xff})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func registerInputFixture(t *testing.T) RegisterInput {
	t.Helper()
	return RegisterInput{
		FirstName: "Ann",
		LastName:  "Lee",
		Gender:    user.GenderFemale,
		Email:     "ann@x.com",
		Password:  "secret1",
		Avatar:    pngBytes(t, 32, 32),
	}
}
