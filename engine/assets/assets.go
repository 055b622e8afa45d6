package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/volchara/engine/assets/loaders"
	"github.com/spaghettifunk/volchara/engine/core"
)

type AssetInfo struct {
	Path       string
	Kind       loaders.ResourceKind
	LastLoaded time.Time
}

// AssetManager loads files below a root directory and caches the decoded
// result. With hot reload on, files created or written under the root are
// evicted from the cache and reported by Drain.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	cache   map[string]*loaders.Resource
	loaders map[loaders.ResourceKind]Loader
	pending map[string]loaders.ResourceKind

	mutex sync.RWMutex

	jobs *JobSystem

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(root string, hotReload bool) (*AssetManager, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		cache:   make(map[string]*loaders.Resource),
		loaders: make(map[loaders.ResourceKind]Loader),
		pending: make(map[string]loaders.ResourceKind),
		done:    make(chan struct{}),
	}
	if am.jobs, err = NewJobSystem(runtime.NumCPU(), 64); err != nil {
		return nil, err
	}
	if hotReload {
		if am.fsnotify, err = fsnotify.NewWatcher(); err != nil {
			am.jobs.Shutdown()
			return nil, err
		}
	}
	return am, nil
}

func (am *AssetManager) Initialize() error {
	am.registerLoader(loaders.ResourceKindShader, &loaders.BinaryLoader{})
	am.registerLoader(loaders.ResourceKindImage, &loaders.ImageLoader{})
	am.registerLoader(loaders.ResourceKindModel, &loaders.ModelLoader{})

	if err := am.watchRecursive(am.root, false); err != nil {
		return fmt.Errorf("indexing assets in %s: %w", am.root, err)
	}
	if am.fsnotify != nil {
		am.wg.Add(1)
		go am.start()
	}
	core.LogInfo("asset manager indexed %d files in %s (hot reload %t)", len(am.assets), am.root, am.fsnotify != nil)
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	am.jobs.Shutdown()
	if am.fsnotify == nil {
		return nil
	}
	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) registerLoader(kind loaders.ResourceKind, loader Loader) {
	am.loaders[kind] = loader
}

// Resolve turns a name relative to the asset root into a clean absolute path.
func (am *AssetManager) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(am.root, name)
}

// Load returns the cached resource for name or decodes it from disk.
func (am *AssetManager) Load(name string) (*loaders.Resource, error) {
	path := am.Resolve(name)

	am.mutex.RLock()
	res, cached := am.cache[path]
	am.mutex.RUnlock()
	if cached {
		return res, nil
	}

	kind := loaders.KindForPath(path)
	loader, ok := am.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("loading %s: %w", name, core.ErrUnknownExtension)
	}
	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.cache[path] = res
	am.assets[path] = AssetInfo{Path: path, Kind: kind, LastLoaded: time.Now()}
	am.mutex.Unlock()
	core.LogDebug("loaded %s %s (%d bytes)", kind, name, res.DataSize)
	return res, nil
}

func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	res, err := am.Load(name)
	if err != nil {
		return nil, err
	}
	code, ok := res.Data.([]uint32)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a shader", name, res.Kind)
	}
	return code, nil
}

func (am *AssetManager) LoadImage(name string) (*loaders.ImageData, error) {
	res, err := am.Load(name)
	if err != nil {
		return nil, err
	}
	image, ok := res.Data.(*loaders.ImageData)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not an image", name, res.Kind)
	}
	return image, nil
}

func (am *AssetManager) LoadModel(name string) (*loaders.Model, error) {
	res, err := am.Load(name)
	if err != nil {
		return nil, err
	}
	model, ok := res.Data.(*loaders.Model)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a model", name, res.Kind)
	}
	return model, nil
}

// Preload decodes names on the worker pool and waits for all of them. Every
// failure is reported in the joined error.
func (am *AssetManager) Preload(names ...string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	wg.Add(len(names))
	for _, name := range names {
		name := name
		am.jobs.Submit(Job{
			Run: func() error {
				_, err := am.Load(name)
				return err
			},
			OnComplete: wg.Done,
			OnFailure: func(err error) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				wg.Done()
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Invalidate drops the cached copy of name.
func (am *AssetManager) Invalidate(name string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.cache, am.Resolve(name))
}

// Assets lists every indexed file.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	infos := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		infos = append(infos, info)
	}
	return infos
}

// Drain fires EVENT_CODE_ASSET_CHANGED for every file changed since the last
// call. It must run on the thread that owns the listeners. Several writes to
// the same file between two calls are reported once.
func (am *AssetManager) Drain() int {
	am.mutex.Lock()
	if len(am.pending) == 0 {
		am.mutex.Unlock()
		return 0
	}
	changed := am.pending
	am.pending = make(map[string]loaders.ResourceKind)
	am.mutex.Unlock()

	for path, kind := range changed {
		name, err := filepath.Rel(am.root, path)
		if err != nil {
			name = path
		}
		ctx := core.EventContext{}
		ctx.Data.C[0] = filepath.ToSlash(name)
		ctx.Data.C[1] = kind.String()
		core.EventFire(core.EVENT_CODE_ASSET_CHANGED, am, ctx)
	}
	return len(changed)
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("watching %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.markChanged(e.Name)
			}
			// Can't stat a deleted path, so try to drop it from the watch list too.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

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

// watchRecursive indexes every file under path and, with hot reload on, adds
// each directory to the watch list. Files created before a new directory is
// watched are picked up by the walk.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify == nil {
				return nil
			}
			if unWatch {
				err = am.fsnotify.Remove(walkPath)
			} else {
				err = am.fsnotify.Add(walkPath)
			}
			if err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
				return err
			}
			return nil
		}
		am.indexFile(walkPath)
		return nil
	})
}

func (am *AssetManager) indexFile(path string) loaders.ResourceKind {
	kind := loaders.KindForPath(path)
	if kind == loaders.ResourceKindNone {
		return kind
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if _, ok := am.assets[path]; !ok {
		am.assets[path] = AssetInfo{Path: path, Kind: kind}
	}
	return kind
}

func (am *AssetManager) markChanged(path string) {
	path = filepath.Clean(path)
	kind := am.indexFile(path)
	if kind == loaders.ResourceKindNone {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.cache, path)
	am.pending[path] = kind
}

func (am *AssetManager) removeAsset(path string) {
	path = filepath.Clean(path)
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, path)
	delete(am.cache, path)
}
