package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/db"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads int
	deleted []string
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, publicID string) (*media.Image, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads++
	return &media.Image{PublicID: media.Folder + "/" + publicID, URL: "https://cdn.test/" + publicID, Width: 2, Height: 2}, nil
}

func (u *fakeUploader) Delete(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, publicID)
	return nil
}

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return repo.New(gdb, time.Second)
}

func newTokens(t *testing.T, accessTTL, refreshTTL time.Duration) *tokens.Manager {
	t.Helper()
	m, err := tokens.NewManager(tokens.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
	require.NoError(t, err)
	return m
}

func pngBanner(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}
