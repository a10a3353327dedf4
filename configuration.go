package zbridge

import (
	"encoding/json"
	"os"
	"path"
	"slices"

	"github.com/pkg/errors"
)

// Standard paths used to store zbridge related data
// https://specifications.freedesktop.org/basedir-spec/latest/
type StandardPaths struct {
	// Can be used to change the profile
	// Default: "zbridge"
	ZBRIDGE_APPNAME string
	// Path to configuration directory.
	// Default: "$XDG_CONFIG_HOME/$ZBRIDGE_APPNAME" or "$HOME/.config/$ZBRIDGE_APPNAME" if unset
	CONFIG_HOME string
	// Path to state directory
	// Default: "$XDG_STATE_HOME/$ZBRIDGE_APPNAME" or "$HOME/.local/state/$ZBRIDGE_APPNAME" if unset
	STATE_HOME string
	// Path to data directory
	// Default: "$XDG_DATA_HOME/$ZBRIDGE_APPNAME" or "$HOME/.local/share/$ZBRIDGE_APPNAME"
	DATA_HOME string
}

func PWDStandardPaths() StandardPaths {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	return StandardPaths{"zbridge", wd, wd, wd}
}

func (s StandardPaths) init() error {
	for _, p := range []string{s.CONFIG_HOME, s.STATE_HOME, s.DATA_HOME} {
		if err := os.MkdirAll(p, 0700); err != nil {
			return errors.Wrapf(err, "failed to create standard path: %s", p)
		}
	}
	return nil
}

type stdpathsBuilder struct {
	stdpaths *StandardPaths
	home     string

	app    string
	config string
	state  string
	data   string
}

func newStdpathsBuilder() *stdpathsBuilder {
	return &stdpathsBuilder{home: os.Getenv("HOME")}
}

func (b *stdpathsBuilder) withStdpaths(stdpaths *StandardPaths) *stdpathsBuilder {
	bcp := *b
	bcp.stdpaths = stdpaths
	return &bcp
}

func (b *stdpathsBuilder) isValid(val string) bool {
	return !slices.Contains([]string{"", "-"}, val)
}

func (b *stdpathsBuilder) bind(val, env, def string) string {
	if b.isValid(val) {
		return val
	}
	if v := os.Getenv(env); b.isValid(v) {
		return v
	}
	return def
}

func (b *stdpathsBuilder) bindToApp(val, env, def string) string {
	v := b.bind(val, env, def)
	if v == val {
		return val
	}
	return path.Join(v, b.app)
}

func (b *stdpathsBuilder) setApp(val string) *stdpathsBuilder {
	b.app = b.bind(val, "ZBRIDGE_APPNAME", "zbridge")
	return b
}

func (b *stdpathsBuilder) setConfig(val string) *stdpathsBuilder {
	b.config = b.bindToApp(val, "XDG_CONFIG_HOME", path.Join(b.home, ".config"))
	return b
}

func (b *stdpathsBuilder) setState(val string) *stdpathsBuilder {
	b.state = b.bindToApp(val, "XDG_STATE_HOME", path.Join(b.home, ".local", "state"))
	return b
}

func (b *stdpathsBuilder) setData(val string) *stdpathsBuilder {
	b.data = b.bindToApp(val, "XDG_DATA_HOME", path.Join(b.home, ".local", "share"))
	return b
}

func (b *stdpathsBuilder) build() *StandardPaths {
	stdpaths := b.stdpaths
	stdpaths.ZBRIDGE_APPNAME = b.app
	stdpaths.CONFIG_HOME = b.config
	stdpaths.STATE_HOME = b.state
	stdpaths.DATA_HOME = b.data
	return stdpaths
}

// Overrides empty standard paths. More of a purge or clean job.
func BindStandardPaths(stdpaths *StandardPaths) *StandardPaths {
	b := newStdpathsBuilder().withStdpaths(stdpaths)
	return b.setApp(stdpaths.ZBRIDGE_APPNAME).
		setConfig(stdpaths.CONFIG_HOME).
		setData(stdpaths.DATA_HOME).
		setState(stdpaths.STATE_HOME).
		build()
}

// Persisted settings, loaded from a JSON file in the configuration
// directory. Flags take precedence over these values.
type Settings struct {
	Catalog CatalogFlags `json:"catalog"`
}

func defaultSettings() Settings {
	return Settings{
		Catalog: CatalogFlags{
			Allowed:  []string{"."},
			Required: []string{"*"},
			Mode:     string(C_UPDATE),
		},
	}
}

type Configuration struct {
	paths    StandardPaths
	settings Settings
	manifest *Manifest
}

// Returns the location where we store the catalog database
func (c *Configuration) Home() string {
	return c.paths.DATA_HOME
}

// Returns the catalog database location
func (c *Configuration) Database() string {
	return path.Join(c.Home(), "catalog.db")
}

func (c *Configuration) Settings() Settings {
	return c.settings
}

func (c *Configuration) Manifest() *Manifest {
	return c.manifest
}

func (c *Configuration) WithManifest(m *Manifest) *Configuration {
	cp := *c
	cp.manifest = m
	return &cp
}

func LoadConfiguration(stdpaths StandardPaths, conf *Configuration) error {
	// initialize paths
	if err := stdpaths.init(); err != nil {
		return errors.Wrap(err, "failed to initialize standard paths")
	}

	conf.paths = stdpaths
	return nil
}

// LoadSettings builds a configuration from the standard paths and the
// settings file. An empty fpath means the default location in the
// configuration directory; a missing file falls back to defaults.
func LoadSettings(fpath string, stdpaths *StandardPaths) (*Configuration, error) {
	var conf Configuration
	if err := LoadConfiguration(*BindStandardPaths(stdpaths), &conf); err != nil {
		return nil, err
	}

	if fpath == "" {
		fpath = path.Join(conf.paths.CONFIG_HOME, "settings.json")
	}

	conf.settings = defaultSettings()
	b, err := os.ReadFile(fpath)
	if err != nil {
		if os.IsNotExist(err) {
			return &conf, nil
		}
		return nil, errors.Wrap(err, "failed to read settings file")
	}

	if err := json.Unmarshal(b, &conf.settings); err != nil {
		return nil, errors.Wrapf(err, "failed to parse settings file %s", fpath)
	}
	return &conf, nil
}
