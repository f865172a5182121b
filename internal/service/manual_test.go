package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/manual/internal/archive"
	"github.com/emrgen/manual/internal/cache"
	"github.com/emrgen/manual/internal/compress"
	"github.com/emrgen/manual/internal/model"
	"github.com/emrgen/manual/internal/queue"
	"github.com/emrgen/manual/internal/store"
	"github.com/emrgen/manual/internal/tester"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu     sync.Mutex
	events []*queue.ManualEvent
}

func (q *recordingQueue) Publish(ctx context.Context, event *queue.ManualEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return nil
}

func (q *recordingQueue) Close() error {
	return nil
}

func (q *recordingQueue) kinds() []queue.EventKind {
	q.mu.Lock()
	defer q.mu.Unlock()
	var kinds []queue.EventKind
	for _, e := range q.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type failingUpload struct{}

func (failingUpload) Bytes() ([]byte, error) {
	return nil, errors.New("connection reset")
}

// faultyStore fails the failAt-th SaveManual call, counting calls made inside transactions too.
type faultyStore struct {
	store.Store
	calls  *int
	failAt int
}

var errSaveFailed = errors.New("disk full")

func (f *faultyStore) SaveManual(ctx context.Context, manual *model.Manual) error {
	*f.calls++
	if *f.calls == f.failAt {
		return errSaveFailed
	}
	return f.Store.SaveManual(ctx, manual)
}

func (f *faultyStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(&faultyStore{Store: tx, calls: f.calls, failAt: f.failAt})
	})
}

// racingStore runs afterList once, right after the next ListManuals has read its rows.
type racingStore struct {
	store.Store
	afterList func()
}

func (r *racingStore) ListManuals(ctx context.Context, groupCode string) ([]*model.Manual, error) {
	manuals, err := r.Store.ListManuals(ctx, groupCode)
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return manuals, err
}

func newTestService(t *testing.T) (*ManualService, store.Store, *recordingQueue, string) {
	t.Helper()
	return newTestServiceWith(t, func(s store.Store) store.Store { return s })
}

// newTestServiceWith builds the service over wrap(s) and returns the unwrapped store for assertions.
func newTestServiceWith(t *testing.T, wrap func(store.Store) store.Store) (*ManualService, store.Store, *recordingQueue, string) {
	t.Helper()
	tester.Setup()

	s := store.NewGormStore(tester.TestDB())
	q := &recordingQueue{}
	uploadDir := t.TempDir()
	treeCache := cache.NewTreeCache(cache.NewMemoryKV(), compress.NewGZip(), time.Minute)

	return NewManualService(wrap(s), treeCache, q, archive.NopRetainer{}, uploadDir), s, q, uploadDir
}

func zipOf(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return bytes.NewReader(buf.Bytes())
}

func saveManual(t *testing.T, s store.Store, manual *model.Manual) *model.Manual {
	t.Helper()
	require.NoError(t, s.SaveManual(context.TODO(), manual))
	return manual
}

func text(s string) *string {
	return &s
}

func TestManualService_ImportArchive(t *testing.T) {
	svc, s, q, uploadDir := newTestService(t)
	ctx := context.TODO()

	r := zipOf(t, map[string]string{
		"a.txt":            "alpha",
		"sub/b.txt":        "beta",
		".gitkeep":         "",
		"__MACOSX/._a.txt": "junk",
	})
	require.NoError(t, svc.ImportArchive(ctx, r, r.Size(), "G"))

	manuals, err := s.ListManuals(ctx, "G")
	require.NoError(t, err)
	require.Len(t, manuals, 3)

	a, sub, b := manuals[0], manuals[1], manuals[2]

	assert.Equal(t, "a.txt", a.Name)
	assert.Equal(t, 0, a.Level)
	assert.Equal(t, 0, a.Sort)
	assert.Nil(t, a.ParentID)
	require.NotNil(t, a.Content)
	assert.Equal(t, "alpha", *a.Content)

	assert.Equal(t, "sub", sub.Name)
	assert.Equal(t, 0, sub.Level)
	assert.Equal(t, 1, sub.Sort)
	assert.Nil(t, sub.Content)

	assert.Equal(t, "b.txt", b.Name)
	assert.Equal(t, 1, b.Level)
	require.NotNil(t, b.ParentID)
	assert.Equal(t, sub.ID, *b.ParentID)
	require.NotNil(t, b.Content)
	assert.Equal(t, "beta", *b.Content)

	for _, m := range manuals {
		assert.Equal(t, "G", m.GroupCode)
		assert.NotEmpty(t, m.Key)
	}

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, []queue.EventKind{queue.ManualsImported}, q.kinds())
}

func TestManualService_ImportArchive_Corrupt(t *testing.T) {
	svc, s, q, uploadDir := newTestService(t)
	ctx := context.TODO()

	r := bytes.NewReader([]byte("definitely not a zip"))
	assert.Error(t, svc.ImportArchive(ctx, r, r.Size(), "G"))

	manuals, err := s.ListManuals(ctx, "G")
	require.NoError(t, err)
	assert.Empty(t, manuals)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, q.kinds())
}

func TestManualService_ImportArchive_FailureRollsBack(t *testing.T) {
	calls := 0
	svc, s, q, uploadDir := newTestServiceWith(t, func(s store.Store) store.Store {
		// a.txt is inserted and updated, sub is inserted, then b.txt fails
		return &faultyStore{Store: s, calls: &calls, failAt: 4}
	})
	ctx := context.TODO()

	r := zipOf(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})
	err := svc.ImportArchive(ctx, r, r.Size(), "G")
	assert.ErrorIs(t, err, errSaveFailed)
	assert.Equal(t, 4, calls)

	manuals, err := s.ListManuals(ctx, "G")
	require.NoError(t, err)
	assert.Empty(t, manuals)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, q.kinds())
}

func TestManualService_BuildTree(t *testing.T) {
	svc, s, _, _ := newTestService(t)
	ctx := context.TODO()

	root := saveManual(t, s, &model.Manual{Name: "guide", GroupCode: "G"})
	saveManual(t, s, &model.Manual{Name: "b.md", GroupCode: "G", Level: 1, Sort: 1, ParentID: &root.ID})
	saveManual(t, s, &model.Manual{Name: "a.md", GroupCode: "G", Level: 1, Sort: 0, ParentID: &root.ID})
	saveManual(t, s, &model.Manual{Name: "other", GroupCode: "H"})

	forest, err := svc.BuildTree(ctx, "G", false)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.False(t, forest[0].Open)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "a.md", forest[0].Children[0].Name)
	assert.Equal(t, "b.md", forest[0].Children[1].Name)

	all, err := svc.BuildTree(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.True(t, all[0].Open)
}

func TestManualService_BuildTree_InvalidatedOnSave(t *testing.T) {
	svc, s, _, _ := newTestService(t)
	ctx := context.TODO()

	root := saveManual(t, s, &model.Manual{Name: "guide", GroupCode: "G"})

	forest, err := svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 1)

	edited := model.NewManualNode(*root, true)
	edited.Name = "handbook"
	require.NoError(t, svc.SaveOrDelete(ctx, []*model.ManualNode{edited}, nil))

	forest, err = svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "handbook", forest[0].Name)
}

func TestManualService_BuildTree_SaveDuringBuildNotCached(t *testing.T) {
	racing := &racingStore{}
	svc, s, _, _ := newTestServiceWith(t, func(s store.Store) store.Store {
		racing.Store = s
		return racing
	})
	ctx := context.TODO()

	root := saveManual(t, s, &model.Manual{Name: "guide", GroupCode: "G"})

	racing.afterList = func() {
		edited := model.NewManualNode(*root, true)
		edited.Name = "handbook"
		require.NoError(t, svc.SaveOrDelete(ctx, []*model.ManualNode{edited}, nil))
	}

	forest, err := svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "guide", forest[0].Name)

	forest, err = svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "handbook", forest[0].Name)
}

func TestManualService_SaveOrDelete_DeleteByIDInvalidatesStoredGroup(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	a := saveManual(t, s, &model.Manual{Name: "a", GroupCode: "G"})
	b := saveManual(t, s, &model.Manual{Name: "b", GroupCode: "G", Sort: 1})
	saveManual(t, s, &model.Manual{Name: "c", GroupCode: "G", Sort: 2})

	forest, err := svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 3)

	// only the id is sent
	idOnly := &model.ManualNode{Manual: model.Manual{ID: a.ID}}
	require.NoError(t, svc.SaveOrDelete(ctx, nil, []*model.ManualNode{idOnly}))

	forest, err = svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, "b", forest[0].Name)

	// the client holds a stale group code
	staleGroup := &model.ManualNode{Manual: model.Manual{ID: b.ID, GroupCode: "H"}}
	require.NoError(t, svc.SaveOrDelete(ctx, nil, []*model.ManualNode{staleGroup}))

	forest, err = svc.BuildTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "c", forest[0].Name)

	require.Len(t, q.events, 2)
	for i, id := range []uint64{a.ID, b.ID} {
		assert.Equal(t, queue.ManualsDeleted, q.events[i].Kind)
		assert.Equal(t, []string{"G"}, q.events[i].GroupCodes)
		assert.Equal(t, []uint64{id}, q.events[i].IDs)
	}
}

func TestManualService_SaveOrDelete_DeleteUnknownID(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	a := saveManual(t, s, &model.Manual{Name: "a", GroupCode: "G"})

	ghost := &model.ManualNode{Manual: model.Manual{ID: a.ID + 100, GroupCode: "G"}}
	require.NoError(t, svc.SaveOrDelete(ctx, nil, []*model.ManualNode{ghost}))

	_, err := s.GetManual(ctx, a.ID)
	assert.NoError(t, err)
	assert.Empty(t, q.kinds())
}

func TestManualService_SaveOrDelete_KeepsKeyAndContent(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	stored := saveManual(t, s, &model.Manual{Name: "a.md", GroupCode: "G", Key: "key-a", Content: text("original")})

	edited := model.NewManualNode(*stored, true)
	edited.Name = "renamed.md"
	edited.Sort = 5
	edited.Key = ""
	edited.Content = text("stale client copy")

	require.NoError(t, svc.SaveOrDelete(ctx, []*model.ManualNode{edited}, nil))

	got, err := s.GetManual(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.md", got.Name)
	assert.Equal(t, 5, got.Sort)
	assert.Equal(t, "key-a", got.Key)
	require.NotNil(t, got.Content)
	assert.Equal(t, "original", *got.Content)

	assert.Equal(t, []queue.EventKind{queue.ManualsSaved}, q.kinds())
}

func TestManualService_SaveOrDelete_Reparents(t *testing.T) {
	svc, s, _, _ := newTestService(t)
	ctx := context.TODO()

	parent := saveManual(t, s, &model.Manual{Name: "guide", GroupCode: "G"})
	other := saveManual(t, s, &model.Manual{Name: "api", GroupCode: "G", Sort: 1})
	child := saveManual(t, s, &model.Manual{Name: "a.md", GroupCode: "G", Level: 1, ParentID: &other.ID})

	staleRoot := *parent
	staleRoot.ParentID = &other.ID
	root := model.NewManualNode(staleRoot, true)
	root.AddChild(model.NewManualNode(*child, true))

	fresh := model.NewManualNode(model.Manual{Name: "new.md", GroupCode: "G", Level: 1, Sort: 1}, true)
	root.AddChild(fresh)

	require.NoError(t, svc.SaveOrDelete(ctx, []*model.ManualNode{root}, nil))

	gotRoot, err := s.GetManual(ctx, parent.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRoot.ParentID)

	gotChild, err := s.GetManual(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, gotChild.ParentID)
	assert.Equal(t, parent.ID, *gotChild.ParentID)

	require.NotZero(t, fresh.ID)
	gotFresh, err := s.GetManual(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, gotFresh.ParentID)
	assert.Equal(t, parent.ID, *gotFresh.ParentID)
	assert.NotEmpty(t, gotFresh.Key)
}

func TestManualService_SaveOrDelete_Deletes(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	p := saveManual(t, s, &model.Manual{Name: "p", GroupCode: "G"})
	c1 := saveManual(t, s, &model.Manual{Name: "c1", GroupCode: "G", Level: 1, ParentID: &p.ID})
	c2 := saveManual(t, s, &model.Manual{Name: "c2", GroupCode: "G", Level: 1, Sort: 1, ParentID: &p.ID})
	grandchild := saveManual(t, s, &model.Manual{Name: "g", GroupCode: "G", Level: 2, ParentID: &c1.ID})
	keep := saveManual(t, s, &model.Manual{Name: "keep", GroupCode: "G", Sort: 1})

	node := model.NewManualNode(*p, true)
	node.AddChild(model.NewManualNode(*c1, true))
	node.AddChild(model.NewManualNode(*c2, true))

	require.NoError(t, svc.SaveOrDelete(ctx, nil, []*model.ManualNode{node}))

	for _, id := range []uint64{p.ID, c1.ID, c2.ID} {
		_, err := s.GetManual(ctx, id)
		assert.ErrorIs(t, err, store.ErrManualNotFound)
	}

	_, err := s.GetManual(ctx, grandchild.ID)
	assert.NoError(t, err)
	_, err = s.GetManual(ctx, keep.ID)
	assert.NoError(t, err)

	assert.Equal(t, []queue.EventKind{queue.ManualsDeleted}, q.kinds())
}

func TestManualService_SaveOrDelete_MissingManualRollsBack(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	stored := saveManual(t, s, &model.Manual{Name: "a.md", GroupCode: "G"})

	renamed := model.NewManualNode(*stored, true)
	renamed.Name = "b.md"
	ghost := model.NewManualNode(model.Manual{ID: stored.ID + 100, Name: "ghost", GroupCode: "G", Sort: 1}, true)

	err := svc.SaveOrDelete(ctx, []*model.ManualNode{renamed, ghost}, nil)
	assert.ErrorIs(t, err, store.ErrManualNotFound)

	got, err := s.GetManual(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.md", got.Name)
	assert.Empty(t, q.kinds())
}

func TestManualService_ReplaceContent(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	stored := saveManual(t, s, &model.Manual{Name: "a.md", GroupCode: "G", Key: "k", Content: text("old")})

	got, err := svc.ReplaceContent(ctx, stored.ID, BytesUpload("\xef\xbb\xbf# Title\nnew body"))
	require.NoError(t, err)
	require.NotNil(t, got.Content)
	assert.Equal(t, "# Title\nnew body", *got.Content)

	reloaded, err := s.GetManual(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Title\nnew body", *reloaded.Content)
	assert.Equal(t, "k", reloaded.Key)

	assert.Equal(t, []queue.EventKind{queue.ManualContentReplaced}, q.kinds())
}

func TestManualService_ReplaceContent_UnreadableUpload(t *testing.T) {
	svc, s, q, _ := newTestService(t)
	ctx := context.TODO()

	stored := saveManual(t, s, &model.Manual{Name: "a.md", GroupCode: "G", Content: text("old")})

	for name, upload := range map[string]Upload{
		"invalid utf-8": BytesUpload([]byte{0xff, 0xfe, 0xfd}),
		"read failure":  failingUpload{},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := svc.ReplaceContent(ctx, stored.ID, upload)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "old", *got.Content)

			reloaded, err := s.GetManual(ctx, stored.ID)
			require.NoError(t, err)
			assert.Equal(t, "old", *reloaded.Content)
		})
	}

	assert.Empty(t, q.kinds())
}

func TestManualService_ReplaceContent_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.ReplaceContent(context.TODO(), 42, BytesUpload("body"))
	assert.ErrorIs(t, err, store.ErrManualNotFound)
}
