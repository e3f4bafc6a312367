package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"edgecam/util"
)

var (
	gLock   sync.RWMutex
	gConfig *Config
)

// settle is how long to wait after a change event before reading the file,
// so editors that write in several steps are read once.
const settle = time.Second / 10

// Parse decodes a configuration document. YAML is used for .yaml and .yml
// paths, JSON otherwise.
func Parse(path string, b []byte) (*Config, error) {
	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &config); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %v", path)
		}
	default:
		d := json.NewDecoder(bytes.NewReader(b))
		d.DisallowUnknownFields()
		if err := d.Decode(&config); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %v", path)
		}
	}
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in %v", path)
	}
	return &config, nil
}

func configFromFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}
	config, err := Parse(path, b)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded configuration: %v", spew.Sdump(redacted(config)))
	return config, nil
}

func redacted(c *Config) Config {
	r := *c
	r.Source = util.ObscurePassword(r.Source)
	return r
}

// Get returns the current configuration. The returned value must not be
// modified.
func Get() *Config {
	gLock.RLock()
	defer gLock.RUnlock()
	return gConfig
}

func set(c *Config) *Config {
	gLock.Lock()
	defer gLock.Unlock()
	old := gConfig
	gConfig = c
	return old
}

// waitForChange blocks until path is written, created or replaced. The
// directory is watched so that editors which rename over the file are seen.
func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	for changed := false; !changed; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watcher.Errors:
			return err
		case ev := <-watcher.Events:
			changed = filepath.Clean(ev.Name) == filepath.Clean(path) &&
				ev.Op&(fsnotify.Write|fsnotify.Create) != 0
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(settle):
	}
	return ctx.Err()
}

// Load reads path and keeps reloading it when it changes until ctx is done.
// onChange, if set, is called with the previous and new configuration after
// each successful reload. A file that fails to parse keeps the previous
// configuration in place.
func Load(ctx context.Context, path string, onChange func(old, new *Config)) error {
	config, err := configFromFile(path)
	if err != nil {
		return err
	}
	set(config)
	go func() {
		for ctx.Err() == nil {
			if err := waitForChange(ctx, path); err != nil {
				if ctx.Err() == nil {
					log.Errorf("Error waiting for file change: %v", err)
					time.Sleep(settle)
				}
				continue
			}

			config, err := configFromFile(path)
			if err != nil {
				log.Errorf("Failed to load new config: %v", err)
				continue
			}
			old := set(config)
			if onChange != nil {
				onChange(old, config)
			}
		}
	}()
	return nil
}
