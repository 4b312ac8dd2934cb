// Package env overlays environment variables on top of another ConfigStore.
//
// A key such as "llm.api_key" is looked up as DOCCHAT_LLM_API_KEY. Values
// from the process environment win over values read from .env files, which
// win over the wrapped store. Writes always go to the wrapped store.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docchat/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Prefix is prepended to every derived variable name.
const Prefix = "DOCCHAT_"

// Overlay is a read-through environment layer over a ConfigStore.
type Overlay struct {
	base   driven.ConfigStore
	dotenv map[string]string
	lookup func(string) (string, bool)
}

// New wraps base. Each envFile is read with godotenv; missing files are
// skipped. With no envFiles, ".env" in the working directory is tried.
func New(base driven.ConfigStore, envFiles ...string) (*Overlay, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	dotenv := make(map[string]string)
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for k, v := range vals {
			dotenv[k] = v
		}
	}

	return &Overlay{
		base:   base,
		dotenv: dotenv,
		lookup: os.LookupEnv,
	}, nil
}

// VarName returns the environment variable consulted for key.
func VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return Prefix + strings.ToUpper(r.Replace(key))
}

func (o *Overlay) env(key string) (string, bool) {
	name := VarName(key)
	if v, ok := o.lookup(name); ok {
		return v, true
	}
	v, ok := o.dotenv[name]
	return v, ok
}

// Get returns the environment value for key if set, else the wrapped value.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt parses the environment value when set.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		return values.Int(v)
	}
	return o.base.GetInt(key)
}

// GetFloat parses the environment value when set.
func (o *Overlay) GetFloat(key string) float64 {
	if v, ok := o.env(key); ok {
		return values.Float(v)
	}
	return o.base.GetFloat(key)
}

// GetBool parses the environment value when set.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.env(key); ok {
		return values.Bool(v)
	}
	return o.base.GetBool(key)
}

// Set writes to the wrapped store.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Save persists the wrapped store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Path returns the wrapped store's path.
func (o *Overlay) Path() string {
	return o.base.Path()
}

// Overridden reports whether key is currently taken from the environment.
func (o *Overlay) Overridden(key string) bool {
	_, ok := o.env(key)
	return ok
}
