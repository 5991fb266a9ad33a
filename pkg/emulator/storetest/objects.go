package storetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mtpfs/pkg/emulator/store"
)

var (
	folderType = uuid.MustParse("27E2E392-A111-48E0-AB0C-E17705A05F85")
	fileType   = uuid.MustParse("0085E0A6-8D34-45D7-BC5C-447E59C73D48")
)

func runObjectCRUDTests(t *testing.T, factory ObjectStoreFactory) {
	t.Run("PutGet", func(t *testing.T) { testObjectPutGet(t, factory) })
	t.Run("Replace", func(t *testing.T) { testObjectReplace(t, factory) })
	t.Run("GetMissing", func(t *testing.T) { testObjectGetMissing(t, factory) })
	t.Run("Delete", func(t *testing.T) { testObjectDelete(t, factory) })
	t.Run("DeleteMissing", func(t *testing.T) { testObjectDeleteMissing(t, factory) })
	t.Run("ReturnsCopies", func(t *testing.T) { testObjectReturnsCopies(t, factory) })
}

func runObjectIndexTests(t *testing.T, factory ObjectStoreFactory) {
	t.Run("ChildrenInInsertionOrder", func(t *testing.T) { testChildrenOrder(t, factory) })
	t.Run("ChildrenOfLeaf", func(t *testing.T) { testChildrenOfLeaf(t, factory) })
	t.Run("Reparent", func(t *testing.T) { testReparent(t, factory) })
	t.Run("DeleteKeepsSiblings", func(t *testing.T) { testDeleteKeepsSiblings(t, factory) })
	t.Run("RootHasNoIndexEntry", func(t *testing.T) { testRootHasNoIndexEntry(t, factory) })
}

func testObjectPutGet(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	rec := newRecord("parent", "photo.jpg", fileType)
	rec.Size = 1234
	rec.OriginalFileName = "photo.jpg"
	putRecord(t, s, rec)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "parent", got.ParentID)
	assert.Equal(t, "photo.jpg", got.Name)
	assert.Equal(t, fileType, got.ContentType)
	assert.Equal(t, uint64(1234), got.Size)
	assert.Equal(t, "photo.jpg", got.OriginalFileName)
	assert.True(t, rec.Created.Equal(got.Created), "created = %v, want %v", got.Created, rec.Created)
	assert.NotZero(t, got.Seq, "store should assign a sequence number")
}

func testObjectReplace(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	rec := putRecord(t, s, newRecord("parent", "old", folderType))
	first, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)

	rec.Name = "new"
	putRecord(t, s, rec)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, first.Seq, got.Seq, "in-place replace keeps the sibling position")

	kids, err := s.Children(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, kids)
}

func testObjectGetMissing(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)

	_, err := s.Get(t.Context(), "nope")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func testObjectDelete(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	rec := putRecord(t, s, newRecord("parent", "gone", fileType))
	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	kids, err := s.Children(ctx, "parent")
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func testObjectDeleteMissing(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)

	err := s.Delete(t.Context(), "nope")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func testObjectReturnsCopies(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	rec := putRecord(t, s, newRecord("parent", "stable", fileType))
	rec.Name = "mutated after put"

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "stable", got.Name)

	got.Name = "mutated after get"
	again, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "stable", again.Name)
}

func testChildrenOrder(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	var want []string
	for _, name := range []string{"zeta", "alpha", "mid", "beta"} {
		rec := putRecord(t, s, newRecord("parent", name, fileType))
		want = append(want, rec.ID)
	}
	putRecord(t, s, newRecord("other", "elsewhere", fileType))

	kids, err := s.Children(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, want, kids)
}

func testChildrenOfLeaf(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	rec := putRecord(t, s, newRecord("parent", "leaf", fileType))

	kids, err := s.Children(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, kids)

	kids, err = s.Children(ctx, "never-existed")
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func testReparent(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	a := putRecord(t, s, newRecord("src", "a", fileType))
	b := putRecord(t, s, newRecord("src", "b", fileType))
	existing := putRecord(t, s, newRecord("dst", "existing", fileType))

	a.ParentID = "dst"
	putRecord(t, s, a)

	srcKids, err := s.Children(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, srcKids)

	dstKids, err := s.Children(ctx, "dst")
	require.NoError(t, err)
	assert.Equal(t, []string{existing.ID, a.ID}, dstKids, "moved record goes last")

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "dst", got.ParentID)
}

func testDeleteKeepsSiblings(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	a := putRecord(t, s, newRecord("parent", "a", fileType))
	b := putRecord(t, s, newRecord("parent", "b", fileType))
	c := putRecord(t, s, newRecord("parent", "c", fileType))

	require.NoError(t, s.Delete(ctx, b.ID))

	kids, err := s.Children(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, kids)

	d := putRecord(t, s, newRecord("parent", "d", fileType))
	kids, err = s.Children(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID, d.ID}, kids)
}

func testRootHasNoIndexEntry(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	root := newRecord("", "DEVICE", folderType)
	root.ID = "DEVICE"
	putRecord(t, s, root)

	got, err := s.Get(ctx, "DEVICE")
	require.NoError(t, err)
	assert.Empty(t, got.ParentID)

	kids, err := s.Children(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func testObjectClosedStore(t *testing.T, factory ObjectStoreFactory) {
	s := factory(t)
	ctx := t.Context()

	rec := putRecord(t, s, newRecord("parent", "x", fileType))
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrStoreClosed)
	assert.ErrorIs(t, s.Put(ctx, newRecord("parent", "y", fileType)), store.ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), store.ErrStoreClosed)
	_, err = s.Children(ctx, "parent")
	assert.ErrorIs(t, err, store.ErrStoreClosed)

	assert.NoError(t, s.Close(), "second Close is a no-op")
}
