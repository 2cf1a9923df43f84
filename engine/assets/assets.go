package assets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/assets/loaders"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

const reloadBuffer = 16

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

/**
 * @brief Indexes the configuration files of a directory tree and reloads
 * them when they change on disk. Reloaded resources are delivered on the
 * Reloads channel; consumers apply them on their own goroutine.
 */
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
	reloads  chan *metadata.Resource
	errors   chan error
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
		reloads:  make(chan *metadata.Resource, reloadBuffer),
		errors:   make(chan error, reloadBuffer),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	am.registerLoader(metadata.ResourceTypeConfig, &loaders.ConfigLoader{})
	am.registerLoader(metadata.ResourceTypeBakePlan, &loaders.BakePlanLoader{})
	am.registerLoader(metadata.ResourceTypeCutout, &loaders.CutoutLoader{})
	return am, nil
}

// Initialize indexes assetsDir and starts watching it and all of its
// sub-directories.
func (am *AssetManager) Initialize(assetsDir string) error {
	if !am.started {
		am.started = true
		go am.start()
	}

	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	return nil
}

// Reloads delivers every asset that was reloaded after a change on disk.
func (am *AssetManager) Reloads() <-chan *metadata.Resource {
	return am.reloads
}

// Errors delivers watcher and reload errors.
func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, false)
}

// Unwatch stops watching the named directory and all sub-directories.
func (am *AssetManager) Unwatch(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, true)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Assets lists the indexed assets of the given type.
func (am *AssetManager) Assets(resourceType metadata.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []AssetInfo
	for _, info := range am.assets {
		if info.Type == resourceType {
			out = append(out, info)
		}
	}
	return out
}

// LoadAsset loads an indexed asset from disk.
func (am *AssetManager) LoadAsset(path string) (*metadata.Resource, error) {
	path = filepath.Clean(path)
	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, errors.Errorf("asset not found: %s", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, errors.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Load(path)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return errors.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// Shutdown stops the watcher and closes the Reloads and Errors channels.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if !am.started {
		close(am.reloads)
		close(am.errors)
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer func() {
		close(am.reloads)
		close(am.errors)
		close(am.stopped)
	}()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						am.reportError(err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) {
					am.reload(e.Name)
				}
			}
			// a removed path cannot be stat'ed, drop it from both the index
			// and the watch list
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			am.reportError(err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) reload(path string) {
	res, err := am.LoadAsset(path)
	if err != nil {
		// half written files fail to decode and are picked up by the next
		// write event
		core.LogDebug("reloading %s: %s", path, err)
		am.reportError(err)
		return
	}
	core.LogInfo("reloaded %s %s", res.Type, path)
	select {
	case am.reloads <- res:
	default:
		core.LogWarn("reload queue full, dropping %s", path)
	}
}

func (am *AssetManager) reportError(err error) {
	select {
	case am.errors <- err:
	default:
		core.LogError(err.Error())
	}
}

// watchRecursive adds all directories under the given one to the watch
// list and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes a created or modified file and reports whether
// it is a known asset.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return false
	}
	path = filepath.Clean(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

// determineAssetType maps name.config.toml to a config, name.plan.yaml to a
// bake plan and images to cutout masks.
func determineAssetType(path string) metadata.ResourceType {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".bmp", ".tif", ".tiff":
		return metadata.ResourceTypeCutout
	case ".toml", ".yaml", ".yml":
	default:
		return metadata.ResourceTypeNone
	}
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path)))) {
	case ".config":
		return metadata.ResourceTypeConfig
	case ".plan":
		return metadata.ResourceTypeBakePlan
	}
	return metadata.ResourceTypeNone
}

// LoadCombinerConfig loads a TOML or YAML combiner configuration.
func LoadCombinerConfig(path string) (*metadata.CombinerConfig, error) {
	res, err := (&loaders.ConfigLoader{}).Load(path)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.CombinerConfig), nil
}

// LoadBakePlan loads a TOML or YAML blend shape bake plan.
func LoadBakePlan(path string) (*metadata.BlendShapeBakePlan, error) {
	res, err := (&loaders.BakePlanLoader{}).Load(path)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.BlendShapeBakePlan), nil
}
