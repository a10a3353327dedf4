package zbridge

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const Z_EXT = ".zig"

type CatalogFlags struct {
	// Paths where to find annotated sources
	Allowed []string `json:"allowed"`
	// Required modules
	// defaults to []string{"*"}
	Required []string `json:"required"`
	// Default execution options per module, merged into every
	// declaration the module emits
	Defaults map[string][]string `json:"defaults"`
	// Cataloging mode
	Mode string `json:"mode"`
}

type CatalogMode string

const (
	// Skip cataloging
	C_SKIP CatalogMode = "skip"
	// Catalog only missing modules
	C_MISSING_ONLY CatalogMode = "missing"
	// Parse and catalog everything. Updates entries in db
	C_UPDATE CatalogMode = "update"
	// Delete cataloged modules and start over
	C_RESET CatalogMode = "reset"
)

type Cataloger interface {
	Catalog(required []string) error
}

type cataloger struct {
	allowed  []string
	seen     []string
	check    bool
	defaults map[string][]string

	repo *bridgeRepo
}

// get the name of the referenced file and remove the file extension
func (s *cataloger) slugify(fpath string) string {
	name := filepath.Base(fpath)
	return strings.TrimSuffix(name, Z_EXT)
}

// searches for a glob of annotated sources, e.g.: **/*
func (s *cataloger) searchGlob(patterns []string) ([]string, error) {
	var fpaths []string
	search := func(fpath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		for _, pattern := range patterns {
			fpath := filepath.Join(fpath, pattern+Z_EXT)
			matches, err := filepath.Glob(fpath)
			if err != nil {
				return errors.Wrapf(err, "failed to search with pattern %s", pattern)
			}
			fpaths = append(fpaths, matches...)
		}
		return nil
	}

	for _, root := range s.allowed {
		if err := filepath.Walk(root, search); err != nil {
			return nil, err
		}
	}
	return fpaths, nil
}

// searches sources by walking the allowed paths
func (s *cataloger) searchFiles(names []string) ([]string, error) {
	var fpaths []string
	search := func(fpath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := s.slugify(fpath)
		if slices.Contains(names, name) {
			fpaths = append(fpaths, fpath)
		}
		return nil
	}

	for _, root := range s.allowed {
		if err := filepath.Walk(root, search); err != nil {
			return nil, err
		}
	}
	return fpaths, nil
}

// searches for globs or paths
func (s *cataloger) search(names []string, glob bool) ([]string, error) {
	if glob {
		return s.searchGlob(names)
	}
	return s.searchFiles(names)
}

// unchanged tells whether a module with this content hash is already
// cataloged under the same name
func (s *cataloger) unchanged(name, hash string) (bool, error) {
	if mod, ok := s.repo.cached(hash); ok && mod.Name == name {
		return true, nil
	}
	stored, err := s.repo.moduleHash(name)
	if err != nil {
		return false, err
	}
	return stored != "" && stored == hash, nil
}

// parse one annotated source into its module record.
// Returns nil when the stored module already matches the source content.
func (s *cataloger) parse(fpath string) (*BridgeModule, error) {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source file")
	}

	name := s.slugify(fpath)
	sum := md5.Sum(b)
	hash := hex.EncodeToString(sum[:])

	skip, err := s.unchanged(name, hash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check stored hash")
	}
	if skip {
		log.Debug().Str("module", name).Msg("source unchanged, skipping")
		return nil, nil
	}

	mod := &BridgeModule{
		Name:     name,
		Location: fpath,
		Hash:     hash,
	}

	outcome, err := Parse(string(b), fpath, 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse source file")
	}

	for _, decl := range outcome.Decls {
		fn, err := makeBridgeFunc(decl, s.defaults[mod.Name])
		if err != nil {
			return nil, err
		}
		mod.Funcs = append(mod.Funcs, fn)
	}

	log.Debug().
		Str("module", mod.Name).
		Int("funcs", len(mod.Funcs)).
		Msg("cataloged source")

	s.seen = append(s.seen, mod.Name)
	return mod, nil
}

// check for modules not stored from a list of names
func (s *cataloger) findMissing(names []string) ([]string, error) {
	found, err := s.repo.findModules(names)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find modules in database")
	}

	missing := Filter(names, func(name string) bool {
		return !slices.Contains(found, name)
	})
	return missing, nil
}

// find sources, parse them, and store their modules
func (s *cataloger) catalog(names []string, glob bool) error {
	if len(names) == 0 {
		return nil
	}

	if s.check {
		missing, err := s.findMissing(names)
		if err != nil {
			return errors.Wrap(err, "failed to find missing modules")
		}
		names = missing
	}

	fpaths, err := s.search(names, glob)
	if err != nil {
		return errors.Wrap(err, "failed to find source files")
	}

	var mods []*BridgeModule
	for _, fpath := range fpaths {
		mod, err := s.parse(fpath)
		if err != nil {
			return errors.Wrap(err, "failed to parse sources")
		}
		if mod == nil {
			continue
		}
		mods = append(mods, mod)
	}

	if err := s.repo.saveModules(mods); err != nil {
		return errors.Wrap(err, "failed to store modules")
	}

	log.Info().Int("modules", len(mods)).Msg("catalog pass done")
	return nil
}

type missingCataloger struct {
	cataloger
}

func MissingCataloger(c cataloger) Cataloger {
	c.check = true
	return &missingCataloger{cataloger: c}
}

func (s *missingCataloger) Catalog(patterns []string) error {
	return s.catalog(patterns, true)
}

type updateCataloger struct {
	cataloger
}

func UpdateCataloger(c cataloger) Cataloger {
	c.check = false
	return &updateCataloger{cataloger: c}
}

func (s *updateCataloger) Catalog(patterns []string) error {
	return s.catalog(patterns, true)
}

type resetCataloger struct {
	cataloger
}

func ResetCataloger(c cataloger) Cataloger {
	return &resetCataloger{cataloger: c}
}

func (s *resetCataloger) Catalog(patterns []string) error {
	if err := s.repo.deleteModules(); err != nil {
		return err
	}
	c := UpdateCataloger(s.cataloger)
	return c.Catalog(patterns)
}

// Extract runs one catalog pass against the configured database.
func Extract(conf *Configuration, flags CatalogFlags) error {
	if m := conf.Manifest(); m != nil {
		flags = CatalogFromManifest(m, flags.Mode)
	}
	repo := newBridgeRepo(conf.Database())
	return BuildCatalog(repo, flags)
}

// StoredModules returns cataloged modules, by name unless the list is
// empty or contains "*".
func StoredModules(conf *Configuration, names []string) ([]*BridgeModule, error) {
	repo := newBridgeRepo(conf.Database())

	if len(names) == 0 || slices.Contains(names, "*") {
		return repo.listModules()
	}

	var mods []*BridgeModule
	for _, name := range names {
		mod, err := repo.getModule(name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// Catalog annotated sources in the allowed folders.
// The mode states how and which sources to catalog.
func BuildCatalog(repo *bridgeRepo, flags CatalogFlags) error {
	var wrap func(cataloger) Cataloger
	switch mode := CatalogMode(flags.Mode); mode {
	case C_SKIP:
		return nil
	case C_MISSING_ONLY:
		wrap = MissingCataloger
	case C_UPDATE:
		wrap = UpdateCataloger
	case C_RESET:
		wrap = ResetCataloger
	default:
		return errors.Errorf("mode not found: %v", mode)
	}

	base := cataloger{
		repo:     repo,
		allowed:  flags.Allowed,
		defaults: flags.Defaults,
	}

	c := wrap(base)
	return c.Catalog(flags.Required)
}
