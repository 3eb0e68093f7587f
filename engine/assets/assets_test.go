package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tesseract/engine/assets/loaders"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

func spirv(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func TestDetermineAssetType(t *testing.T) {
	cases := map[string]metadata.ResourceType{
		"shaders/shader.vert.spv": metadata.ResourceTypeShader,
		"icons/tesseract.bmp":     metadata.ResourceTypeImage,
		"data/mesh.bin":           metadata.ResourceTypeBinary,
		"tesseract.toml":          metadata.ResourceTypeText,
		"shaders/shader.frag":     metadata.ResourceTypeText,
	}
	for path, want := range cases {
		got, ok := determineAssetType(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	_, ok := determineAssetType("README.md")
	assert.False(t, ok)
}

func TestInitializeIndexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	vert := filepath.Join(dir, "nested", "shader.vert.spv")
	require.NoError(t, os.WriteFile(vert, spirv(loaders.SPIRV_MAGIC, 7), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("x"), 0o644))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	info, ok := am.Lookup(vert)
	require.True(t, ok)
	assert.Equal(t, metadata.ResourceTypeShader, info.Type)
	_, ok = am.Lookup(filepath.Join(dir, "ignored.md"))
	assert.False(t, ok)

	res, err := am.LoadAsset(vert, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{loaders.SPIRV_MAGIC, 7}, res.Data)
	require.NoError(t, am.UnloadAsset(res))

	_, err = am.LoadAsset(filepath.Join(dir, "missing.spv"), nil)
	assert.Error(t, err)
}

func TestWatcherReportsShaderChanges(t *testing.T) {
	dir := t.TempDir()
	am, err := NewAssetManager()
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []AssetInfo
	am.OnChange(func(info AssetInfo) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, info)
	})
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	frag := filepath.Join(dir, "shader.frag.spv")
	require.NoError(t, os.WriteFile(frag, spirv(loaders.SPIRV_MAGIC), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, info := range seen {
			if info.Path == frag && info.Type == metadata.ResourceTypeShader && !info.Removed {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(frag))
	require.Eventually(t, func() bool {
		_, ok := am.Lookup(frag)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
	assert.ErrorIs(t, am.addRecursive(t.TempDir()), ErrManagerClosed)
}
