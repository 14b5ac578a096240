package config

import (
	"encoding/json"
	"io"
	"os"
	"path"
	"reflect"

	a "evote-node/modules/aggregate"
	"evote-node/lib/utils"

	"github.com/chebyrash/promise"
)

// Config persists a module's settings as a JSON file named after the config
// struct type. Defaults are written out on first Init so operators always
// have a file to edit.
type Config[T any] struct {
	defaultValue T
	dataDir      string

	loaded bool
	value  T
}

const DATA_DIR = "data"
const CONFIG_DIR = "config"

var _ a.Plugin = &Config[struct{}]{}

func New[T any](defaultValue T, dataDir *string) *Config[T] {
	dir := DATA_DIR
	if dataDir != nil {
		dir = *dataDir
	}
	return &Config[T]{defaultValue: defaultValue, dataDir: dir}
}

func (c *Config[T]) filePath() string {
	name := reflect.TypeFor[T]().Name()
	return path.Join(c.dataDir, CONFIG_DIR, name+".json")
}

// Init implements aggregate.Plugin.
func (c *Config[T]) Init() error {
	f, err := os.Open(c.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			err = c.Update(func(t *T) {
				*t = c.defaultValue
			})
			if err != nil {
				return err
			}
		} else {
			return err
		}
	} else {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		err = json.Unmarshal(b, &c.value)
		if err != nil {
			return err
		}
	}
	c.loaded = true
	return nil
}

// Start implements aggregate.Plugin.
func (c *Config[T]) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (c *Config[T]) Stop() error {
	return nil
}

func (c *Config[T]) Get() T {
	return c.value
}

// Update applies the mutation, writes the result to disk and only then
// swaps the in-memory value.
func (c *Config[T]) Update(updater func(*T)) error {
	temp := c.value
	updater(&temp)
	b, err := json.MarshalIndent(temp, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(path.Dir(c.filePath()), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(c.filePath(), b, 0644)
	if err != nil {
		return err
	}
	c.value = temp
	return nil
}
