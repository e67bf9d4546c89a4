// Package gamedata implements the boot-time game-data registries named
// throughout spec §4.2 as "the currently loaded game data": item,
// entity-template, and animation catalogs loaded from JSON at startup
// and consulted by the bundle codec to resolve and render string-table
// names. Grounded on internal/world/block/loader.go's directory-walk
// JSON loader shape, generalized from block.Register's single
// id-keyed registry into three name<->id bidirectional catalogs (one
// per bundle.Resolver method).
package gamedata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/annel0/mmo-game/internal/bundle"
)

// entry is one JSON record's shared shape: every catalog file is a
// flat list of {id, name} objects.
type entry struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// catalog is a bidirectional name<->id table for one of the three
// bundle.Resolver domains.
type catalog struct {
	mu     sync.RWMutex
	byName map[string]uint32
	byID   map[uint32]string
}

func newCatalog() *catalog {
	return &catalog{byName: make(map[string]uint32), byID: make(map[uint32]string)}
}

func (c *catalog) register(id uint32, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byID[id]; ok && existing != name {
		return fmt.Errorf("gamedata: id %d already registered as %q, cannot reuse for %q", id, existing, name)
	}
	c.byName[name] = id
	c.byID[id] = name
	return nil
}

func (c *catalog) idFor(name string) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	return id, ok
}

func (c *catalog) nameFor(id uint32) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.byID[id]
	return name, ok
}

// Registry is the full set of loaded game-data catalogs: items, entity
// templates, and animations. It implements bundle.Resolver directly,
// so the importer can be handed a *Registry wherever a bundle.Resolver
// is expected.
type Registry struct {
	items     *catalog
	templates *catalog
	anims     *catalog
}

// NewRegistry builds an empty registry; use Load to populate it.
func NewRegistry() *Registry {
	return &Registry{items: newCatalog(), templates: newCatalog(), anims: newCatalog()}
}

// Load walks root/items, root/templates, and root/anims, each a
// directory of JSON files holding a flat {id, name} array, and
// registers every entry. A subdirectory that does not exist is
// treated as empty rather than an error, since not every deployment
// carries all three catalogs (a minimal test world may ship no
// animations, for instance).
func (r *Registry) Load(root string) error {
	if err := loadCatalog(filepath.Join(root, "items"), r.items); err != nil {
		return fmt.Errorf("gamedata: loading items: %w", err)
	}
	if err := loadCatalog(filepath.Join(root, "templates"), r.templates); err != nil {
		return fmt.Errorf("gamedata: loading templates: %w", err)
	}
	if err := loadCatalog(filepath.Join(root, "anims"), r.anims); err != nil {
		return fmt.Errorf("gamedata: loading anims: %w", err)
	}
	return nil
}

func loadCatalog(dir string, c *catalog) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		var entries []entry
		if err := json.NewDecoder(file).Decode(&entries); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, e := range entries {
			if err := c.register(e.ID, e.Name); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})
}

// ItemID implements bundle.Resolver.
func (r *Registry) ItemID(name string) (uint32, bool) { return r.items.idFor(name) }

// TemplateID implements bundle.Resolver.
func (r *Registry) TemplateID(name string) (uint32, bool) { return r.templates.idFor(name) }

// AnimID implements bundle.Resolver.
func (r *Registry) AnimID(name string) (uint16, bool) {
	id, ok := r.anims.idFor(name)
	return uint16(id), ok
}

// ItemName, TemplateName, and AnimName resolve the reverse direction
// (id -> name), for wiring into bundle.SetNameResolvers at boot.
func (r *Registry) ItemName(id uint32) string {
	if name, ok := r.items.nameFor(id); ok {
		return name
	}
	return fmt.Sprintf("item#%d", id)
}

func (r *Registry) TemplateName(id uint32) string {
	if name, ok := r.templates.nameFor(id); ok {
		return name
	}
	return fmt.Sprintf("template#%d", id)
}

func (r *Registry) AnimName(id uint16) string {
	if name, ok := r.anims.nameFor(uint32(id)); ok {
		return name
	}
	return fmt.Sprintf("anim#%d", id)
}

// Install points internal/bundle's export-time name resolvers at this
// registry, so bundles exported after boot carry real item/template/
// anim names instead of bundle.defaultName's synthetic placeholders.
// Kept as an explicit call (rather than an init-time side effect) so
// tests can load a Registry without mutating bundle's package-level
// resolver state.
func (r *Registry) Install() {
	bundle.SetNameResolvers(r.ItemName, r.TemplateName, r.AnimName)
}
