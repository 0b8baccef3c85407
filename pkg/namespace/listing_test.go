package namespace

import (
	"fmt"
	"path"
	"testing"

	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChildren_CreatedDirectoryListedOnce(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		dirs := []string{"/a", "/a/b", "/a/b/c", "/x", "/a/d"}
		f.mkdir(t, dirs...)

		for _, d := range dirs {
			parent, leaf := path.Dir(d), path.Base(d)

			count := 0
			for _, n := range f.names(t, parent) {
				if n == leaf {
					count++
				}
			}
			assert.Equal(t, 1, count, "%s listed %d times in %s", leaf, count, parent)

			attrs, err := f.ns.GetAttributes(f.ctx, d)
			require.NoError(t, err)
			assert.True(t, attrs.IsDir())
		}
	})
}

func TestListChildren_NestedFile(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		f.mkdir(t, "/a")
		f.create(t, "/a/b.txt")

		assert.Contains(t, f.names(t, "/a"), "b.txt")

		root := f.names(t, "/")
		assert.Contains(t, root, "a")
		assert.NotContains(t, root, "b.txt")
		assert.NotContains(t, root, "a/b.txt")
	})
}

func TestListChildren_OrderMarkersDirsThenFiles(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		f.create(t, "/zfile")
		f.mkdir(t, "/zdir")
		f.create(t, "/afile")
		f.mkdir(t, "/adir")

		children, err := f.ns.ListChildren(f.ctx, "/")
		require.NoError(t, err)

		assert.Equal(t, []DirEntry{
			{Name: ".", Kind: metadata.KindDirectory},
			{Name: "..", Kind: metadata.KindDirectory},
			{Name: "zdir", Kind: metadata.KindDirectory},
			{Name: "adir", Kind: metadata.KindDirectory},
			{Name: "zfile", Kind: metadata.KindFile},
			{Name: "afile", Kind: metadata.KindFile},
		}, children)
	})
}

func TestListChildren_PrefixRequiresSeparator(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		f.mkdir(t, "/a", "/abc", "/a/b")
		f.create(t, "/ab.txt", "/a/c.txt")

		assert.Equal(t, []string{".", "..", "b", "c.txt"}, f.names(t, "/a"))
		assert.Equal(t, []string{".", "..", "a", "abc", "ab.txt"}, f.names(t, "/"))
	})
}

func TestListChildren_OnlyImmediateChildren(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		f.mkdir(t, "/a", "/a/b", "/a/b/c")
		f.create(t, "/a/b/c/deep.txt")

		assert.Equal(t, []string{".", "..", "b"}, f.names(t, "/a"))
		assert.Equal(t, []string{".", "..", "c"}, f.names(t, "/a/b"))
		assert.Equal(t, []string{".", "..", "deep.txt"}, f.names(t, "/a/b/c"))
	})
}

func TestListChildren_NonDirectoryYieldsMarkers(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		f.create(t, "/file")

		assert.Equal(t, []string{".", ".."}, f.names(t, "/file"))
		assert.Equal(t, []string{".", ".."}, f.names(t, "/missing"))
	})
}

func TestListChildren_EmptyRoot(t *testing.T) {
	forEachBackend(t, fixtureOptions{}, func(t *testing.T, f *fixture) {
		assert.Equal(t, []string{".", ".."}, f.names(t, "/"))
	})
}

func TestListChildren_ManyEntries(t *testing.T) {
	forEachBackend(t, fixtureOptions{capacity: 64}, func(t *testing.T, f *fixture) {
		f.mkdir(t, "/d")

		want := []string{".", ".."}
		for i := range 40 {
			name := fmt.Sprintf("f%02d", i)
			f.create(t, "/d/"+name)
			want = append(want, name)
		}

		assert.Equal(t, want, f.names(t, "/d"))
	})
}
