package application

import (
	"path/filepath"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/luxfi/walletscan/pkg/core"
)

// App is the main application context that holds all dependencies
type App struct {
	Log      log.Logger
	BaseDir  string
	Config   *viper.Viper
	Network  *core.Network
	Registry *prometheus.Registry

	closers []func()
}

// New creates a new App instance
func New() *App {
	return &App{}
}

// Setup initializes the application with dependencies
func (a *App) Setup(baseDir string, logger log.Logger, config *viper.Viper, network *core.Network) {
	a.BaseDir = baseDir
	a.Log = logger
	a.Config = config
	a.Network = network
	a.Registry = prometheus.NewRegistry()
}

// GetCacheDir returns the default balance cache directory
func (a *App) GetCacheDir() string {
	return filepath.Join(a.BaseDir, "cache")
}

// OnClose registers fn to run when the app is closed
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close runs the registered close funcs in reverse order. It is safe to
// call more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
