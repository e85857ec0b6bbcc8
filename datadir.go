package connect4

import (
	"github.com/discochess/connect4/internal/stats"
	"github.com/discochess/connect4/internal/store/cachedstore"
)

// DataDir is a data directory opened once and shared by several engines in
// the same process. Partitions read by one engine are served to the others
// from an LRU cache instead of being read and decompressed again.
type DataDir struct {
	layout dataDirLayout
	store  *cachedstore.Store
}

// OpenDataDir opens dir like WithDataDir and keeps up to cacheSize decoded
// partitions in memory. The collector is optional.
func OpenDataDir(dir string, cacheSize int, collector stats.Collector) (*DataDir, error) {
	layout, err := loadDataDir(dir)
	if err != nil {
		return nil, err
	}
	disk, err := layout.open()
	if err != nil {
		return nil, err
	}
	st, err := cachedstore.New(disk, cacheSize, collector)
	if err != nil {
		disk.Close()
		return nil, err
	}
	return &DataDir{layout: layout, store: st}, nil
}

// Option returns an engine option backed by the shared store. Every engine
// built with it must be closed; the directory stays open until the engines
// and the DataDir itself are closed.
func (d *DataDir) Option() Option {
	return d.layout.option(d.store.Share())
}

// CacheStats returns the hit and miss counts of the shared cache.
func (d *DataDir) CacheStats() cachedstore.Stats {
	return d.store.Stats()
}

// Close releases the DataDir's own hold on the store.
func (d *DataDir) Close() error {
	return d.store.Close()
}
