package view

import (
	"sync"
)

//process wide store registry, operators resolve their store by name and
//never own it, the engine controls store lifetime

var (
	registryMutex sync.RWMutex
	registry      = map[string]*Store{}
)

func Register(store *Store) {
	registryMutex.Lock()
	registry[store.Name()] = store
	registryMutex.Unlock()
}

func Get(name string) *Store {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	return registry[name]
}

func Unregister(name string) {
	registryMutex.Lock()
	delete(registry, name)
	registryMutex.Unlock()
}
