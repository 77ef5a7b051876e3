package switchport

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/vault"
	pkgplugin "github.com/HerbHall/switchconnector/pkg/plugin"
)

// Cache keeps one driver per device address for one transport. Entries are
// dropped when the credentials of their address change, so the cache never
// holds more drivers than the inventory has devices.
type Cache struct {
	factory driver.Factory
	logger  *zap.Logger

	mu      sync.Mutex
	drivers map[string]driver.Driver
	// epoch advances on every eviction; a driver built under an older epoch
	// is handed to its waiting callers but not stored.
	epoch   uint64
	group   singleflight.Group
}

// NewCache returns an empty cache building drivers with factory.
func NewCache(factory driver.Factory, logger *zap.Logger) *Cache {
	return &Cache{
		factory: factory,
		logger:  logger,
		drivers: make(map[string]driver.Driver),
	}
}

// Protocol returns the transport of the cached drivers.
func (c *Cache) Protocol() string {
	return c.factory.Protocol()
}

// Get returns the driver for addr, building it on first use. Concurrent
// first uses share one construction. Construction failures are not cached.
func (c *Cache) Get(addr string) (driver.Driver, error) {
	c.mu.Lock()
	if d, ok := c.drivers[addr]; ok {
		c.mu.Unlock()
		return d, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	key := addr + "@" + strconv.FormatUint(epoch, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if d, ok := c.drivers[addr]; ok {
			c.mu.Unlock()
			return d, nil
		}
		c.mu.Unlock()

		d, err := c.factory.New(addr)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.drivers[addr]; ok {
			_ = d.Close()
			return existing, nil
		}
		if c.epoch == epoch {
			c.drivers[addr] = d
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(driver.Driver), nil
}

// Evict closes and drops the drivers of addrs.
func (c *Cache) Evict(addrs ...string) {
	c.mu.Lock()
	c.epoch++
	evicted := make([]driver.Driver, 0, len(addrs))
	for _, addr := range addrs {
		if d, ok := c.drivers[addr]; ok {
			evicted = append(evicted, d)
			delete(c.drivers, addr)
		}
	}
	c.mu.Unlock()

	for _, d := range evicted {
		if err := d.Close(); err != nil {
			c.logger.Warn("close evicted driver", zap.String("protocol", c.Protocol()), zap.Error(err))
		}
	}
}

// Len returns the number of cached drivers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drivers)
}

// Close drops every cached driver.
func (c *Cache) Close() error {
	c.mu.Lock()
	c.epoch++
	drivers := c.drivers
	c.drivers = make(map[string]driver.Driver)
	c.mu.Unlock()

	var errs []error
	for _, d := range drivers {
		errs = append(errs, d.Close())
	}
	return errors.Join(errs...)
}

// evictOnInventoryChange returns a bus handler evicting the addresses an
// inventory replacement changed from every cache.
func evictOnInventoryChange(logger *zap.Logger, caches ...*Cache) pkgplugin.EventHandler {
	return func(_ context.Context, event pkgplugin.Event) {
		var changed []string
		switch p := event.Payload.(type) {
		case vault.InventoryReplacedEvent:
			changed = p.Changed
		case *vault.InventoryReplacedEvent:
			changed = p.Changed
		default:
			logger.Warn("unexpected inventory event payload", zap.String("topic", event.Topic))
			return
		}
		if len(changed) == 0 {
			return
		}
		for _, c := range caches {
			c.Evict(changed...)
		}
		logger.Debug("evicted drivers", zap.Strings("devices", changed))
	}
}
