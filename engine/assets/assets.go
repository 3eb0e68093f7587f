package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/tesseract/engine/assets/loaders"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

var ErrManagerClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
	// Set when the file was removed from disk.
	Removed bool
}

/**
 * @brief Indexes the files below one or more directories and keeps the
 * index current through fsnotify. Listeners registered with OnChange are
 * called from the watcher goroutine for every created, written or removed
 * asset.
 */
type AssetManager struct {
	assets    map[string]AssetInfo
	loaders   map[metadata.ResourceType]Loader
	listeners []func(AssetInfo)

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.registerLoader(metadata.ResourceTypeText, &loaders.TextLoader{})
	return am, nil
}

// Initialize indexes every file under the given directories and starts watching them.
func (am *AssetManager) Initialize(dirs ...string) error {
	for _, dir := range dirs {
		if err := am.addRecursive(dir); err != nil {
			return err
		}
	}
	am.wg.Add(1)
	go am.start()
	return nil
}

// OnChange registers fn to be called for every asset change seen by the watcher.
func (am *AssetManager) OnChange(fn func(AssetInfo)) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.listeners = append(am.listeners, fn)
}

// Lookup returns the index entry of path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return ErrManagerClosed
	}
	return am.watchRecursive(name)
}

func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads an indexed asset with the loader registered for its type.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Load(path, asset.Type, params)
}

func (am *AssetManager) UnloadAsset(resource *metadata.Resource) error {
	loader, ok := am.loaders[resource.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", resource.Type)
	}
	return loader.Unload(resource)
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	path := filepath.Clean(e.Name)
	if s, err := os.Stat(path); err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.watchRecursive(path); err != nil {
				core.LogWarn("asset watcher: %s", err)
			}
		}
		return
	}

	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		if info, ok := am.indexFile(path); ok {
			am.notify(info)
		}
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		if info, ok := am.removeAsset(path); ok {
			am.notify(info)
		}
	}
}

func (am *AssetManager) notify(info AssetInfo) {
	am.mutex.RLock()
	listeners := append([]func(AssetInfo){}, am.listeners...)
	am.mutex.RUnlock()
	for _, fn := range listeners {
		fn(info)
	}
}

// watchRecursive watches every directory under path and indexes the files found there.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.indexFile(filepath.Clean(walkPath))
		return nil
	})
}

func (am *AssetManager) indexFile(path string) (AssetInfo, bool) {
	assetType, ok := determineAssetType(path)
	if !ok {
		return AssetInfo{}, false
	}
	info := AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	am.mutex.Lock()
	am.assets[path] = info
	am.mutex.Unlock()
	return info, true
}

func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, ok := am.assets[path]
	if !ok {
		return AssetInfo{}, false
	}
	delete(am.assets, path)
	info.Removed = true
	return info, true
}

func determineAssetType(path string) (metadata.ResourceType, bool) {
	switch filepath.Ext(path) {
	case ".spv":
		return metadata.ResourceTypeShader, true
	case ".bmp":
		return metadata.ResourceTypeImage, true
	case ".bin":
		return metadata.ResourceTypeBinary, true
	case ".toml", ".txt", ".vert", ".frag":
		return metadata.ResourceTypeText, true
	}
	return metadata.ResourceTypeCustom, false
}
