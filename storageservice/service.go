// Package storageservice opens the browser's domain stores over a shared
// sqldb.Registry.
package storageservice

import (
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/stores/certificate"
	"go.browserstore.dev/core/stores/folders"
	"go.browserstore.dev/core/stores/pwa"
	"go.browserstore.dev/core/stores/quickaccess"
	"go.browserstore.dev/core/stores/settings"
)

// Config locates the database files of the domain stores. File names may
// carry a query of sqldb.Options overrides (eg "settings.db?retry_count=5").
type Config struct {
	Dir           string `long:"dir" env:"DIR" default:"." description:"Directory holding store database files"`
	Settings      string `long:"settings" env:"SETTINGS" default:".browser.settings.db" description:"Database file of settings"`
	Folders       string `long:"folders" env:"FOLDERS" default:".browser.bookmark.db" description:"Database file of bookmark folders"`
	Certificate   string `long:"certificate" env:"CERTIFICATE" default:".browser.certificate.db" description:"Database file of certificate decisions"`
	QuickAccess   string `long:"quickaccess" env:"QUICKACCESS" default:".browser.quickaccess.db" description:"Database file of quick-access items"`
	PWA           string `long:"pwa" env:"PWA" default:".browser.pwa.db" description:"Database file of PWA responses"`
	SpecialFolder string `long:"special-folder" env:"SPECIAL_FOLDER" default:"Mobile" description:"Name of the built-in special bookmark folder"`
}

// DefaultConfig returns a Config having default file names within |dir|.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:           dir,
		Settings:      ".browser.settings.db",
		Folders:       ".browser.bookmark.db",
		Certificate:   ".browser.certificate.db",
		QuickAccess:   ".browser.quickaccess.db",
		PWA:           ".browser.pwa.db",
		SpecialFolder: folders.DefaultSpecialFolderName,
	}
}

// Path returns the DSN of store file |name| within the Config's Dir.
func (cfg Config) Path(name string) string {
	if name == sqldb.MemoryPath || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.Dir, name)
}

// Service holds the domain stores. A store whose initialization failed is
// nil, and is disabled for the lifetime of the Service: its operations
// return defaults and common.ErrDisabled.
type Service struct {
	Registry *sqldb.Registry

	Settings    *settings.Store
	Folders     *folders.Store
	Certificate *certificate.Store
	QuickAccess *quickaccess.Store
	PWA         *pwa.Store

	// Errors of stores which failed to initialize, keyed on store.
	InitErrors map[string]error
}

// New opens each store of |cfg| within |reg|.
func New(cfg Config, reg *sqldb.Registry) *Service {
	var svc = &Service{Registry: reg, InitErrors: make(map[string]error)}
	var err error

	if svc.Settings, err = settings.New(reg, cfg.Path(cfg.Settings)); err != nil {
		svc.InitErrors["settings"] = err
	}
	if svc.Folders, err = folders.New(reg, cfg.Path(cfg.Folders), cfg.SpecialFolder); err != nil {
		svc.InitErrors["folders"] = err
	}
	if svc.Certificate, err = certificate.New(reg, cfg.Path(cfg.Certificate)); err != nil {
		svc.InitErrors["certificate"] = err
	}
	if svc.QuickAccess, err = quickaccess.New(reg, cfg.Path(cfg.QuickAccess)); err != nil {
		svc.InitErrors["quickaccess"] = err
	}
	if svc.PWA, err = pwa.New(reg, cfg.Path(cfg.PWA)); err != nil {
		svc.InitErrors["pwa"] = err
	}

	if len(svc.InitErrors) != 0 {
		log.WithField("disabled", len(svc.InitErrors)).Warn("storage service started with disabled stores")
	}
	return svc
}

// Close the Service's Registry, and with it all store Databases.
func (svc *Service) Close() error { return svc.Registry.Close() }
