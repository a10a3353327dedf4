package zbridge

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type DatabaseLocation string

const (
	NO_DATABASE       DatabaseLocation = ""
	INMEMORY_DATABASE DatabaseLocation = ":memory:"
)

type Repository interface {
	WithTransaction(fn func(*gorm.DB) error) error
	connect() (*gorm.DB, error)
}

type repository struct {
	db *gorm.DB

	location string
	config   *gorm.Config
	models   []any
}

// do whatever within a separate transaction
func (r *repository) WithTransaction(fn func(conn *gorm.DB) error) error {
	if _, err := r.connect(); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func (r *repository) connect() (*gorm.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := gorm.Open(sqlite.Open(r.location), r.config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	db = db.Exec("PRAGMA foreign_keys = ON")
	if err := db.AutoMigrate(r.models...); err != nil {
		return nil, err
	}
	r.db = db

	return db, nil
}

type bridgeRepo struct {
	Repository
	// recently loaded modules, keyed by content hash so the cataloger
	// can recognize unchanged sources without touching the database
	cache *expirable.LRU[string, *BridgeModule]
}

func newBridgeRepo(location string) *bridgeRepo {
	return &bridgeRepo{
		Repository: &repository{
			location: location,
			config:   &gorm.Config{},
			models:   []any{&BridgeModule{}, &BridgeFunc{}},
		},
		cache: expirable.NewLRU[string, *BridgeModule](256, nil, 5*time.Minute),
	}
}

// returns the stored module names among the given ones
func (r *bridgeRepo) findModules(names []string) ([]string, error) {
	var found []string
	err := r.WithTransaction(func(d *gorm.DB) error {
		q := d.Model(&BridgeModule{}).Where("name IN ?", names).Pluck("name", &found)
		if err := q.Error; err != nil {
			return errors.Wrap(err, "failed to find module names")
		}
		return nil
	})
	return found, err
}

// cached returns a recently loaded module by content hash.
func (r *bridgeRepo) cached(hash string) (*BridgeModule, bool) {
	return r.cache.Get(hash)
}

// returns the stored content hash for a module, empty when not cataloged
func (r *bridgeRepo) moduleHash(name string) (string, error) {
	var hashes []string
	err := r.WithTransaction(func(d *gorm.DB) error {
		q := d.Model(&BridgeModule{}).Where("name = ?", name).Limit(1).Pluck("hash", &hashes)
		if err := q.Error; err != nil {
			return errors.Wrapf(err, "failed to find hash of module %s", name)
		}
		return nil
	})
	if err != nil || len(hashes) == 0 {
		return "", err
	}
	return hashes[0], nil
}

func (r *bridgeRepo) getModule(name string) (*BridgeModule, error) {
	var mod BridgeModule
	err := r.WithTransaction(func(d *gorm.DB) error {
		q := d.Preload("Funcs").Where("name = ?", name).First(&mod)
		if err := q.Error; err != nil {
			return errors.Wrapf(err, "failed to find module %s", name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.cache.Add(mod.Hash, &mod)
	return &mod, nil
}

func (r *bridgeRepo) saveModules(mods []*BridgeModule) error {
	if len(mods) == 0 {
		// nothing to store
		return nil
	}

	return r.WithTransaction(func(d *gorm.DB) error {
		for _, mod := range mods {
			// a re-cataloged module replaces its previous generation of
			// declarations instead of stacking a new one on top
			var prev BridgeModule
			err := d.Where("name = ?", mod.Name).First(&prev).Error
			switch {
			case err == nil:
				q := d.Unscoped().Where("module_id = ?", prev.ID).Delete(&BridgeFunc{})
				if err := q.Error; err != nil {
					return errors.Wrapf(err, "failed to drop stale declarations of %s", mod.Name)
				}
				mod.ID = prev.ID
				mod.CreatedAt = prev.CreatedAt
			case errors.Is(err, gorm.ErrRecordNotFound):
				// first time seen
			default:
				return errors.Wrapf(err, "failed to look up module %s", mod.Name)
			}

			q := d.Session(&gorm.Session{FullSaveAssociations: true}).Save(mod)
			if err := q.Error; err != nil {
				return errors.Wrapf(err, "failed to save module %s", mod.Name)
			}
			r.cache.Add(mod.Hash, mod)
		}
		return nil
	})
}

func (r *bridgeRepo) deleteModules() error {
	r.cache.Purge()
	return r.WithTransaction(func(d *gorm.DB) error {
		q := d.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := q.Unscoped().Select(clause.Associations).Delete(&BridgeModule{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete modules with associations")
		}
		return nil
	})
}

// returns all stored declarations, preloaded per module
func (r *bridgeRepo) listModules() ([]*BridgeModule, error) {
	var mods []*BridgeModule
	err := r.WithTransaction(func(d *gorm.DB) error {
		q := d.Preload("Funcs").Find(&mods)
		if err := q.Error; err != nil {
			return errors.Wrap(err, "failed to list modules")
		}
		return nil
	})
	return mods, err
}
