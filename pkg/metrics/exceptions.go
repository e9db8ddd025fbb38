package metrics

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// TypeNamer lets an error choose the type name its exception meter is keyed by.
type TypeNamer interface {
	TypeName() string
}

type exceptionKey struct {
	typeName string
	message  string
}

func (k exceptionKey) meterName() string {
	return k.typeName + "-" + k.message
}

// exceptionKeyOf builds the identity of err. Invalid UTF-8 is replaced so
// meter names stay printable in every exposition format.
func exceptionKeyOf(err error) exceptionKey {
	return exceptionKey{
		typeName: strings.ToValidUTF8(exceptionTypeName(err), "\uFFFD"),
		message:  strings.ToValidUTF8(err.Error(), "\uFFFD"),
	}
}

// exceptionTypeName returns the short type name of err: an explicit
// TypeNamer anywhere in the chain wins, otherwise the dynamic type without
// pointer or package qualifier.
func exceptionTypeName(err error) string {
	var namer TypeNamer
	if errors.As(err, &namer) {
		return namer.TypeName()
	}

	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if idx := strings.LastIndex(name, "."); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

// exceptionCache maps exception identities to meters and evicts the least
// recently marked identity once full.
type exceptionCache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[exceptionKey, *Meter]
}

func newExceptionCache(size int, onEvict func(*Meter)) (*exceptionCache, error) {
	lru, err := simplelru.NewLRU[exceptionKey, *Meter](size, func(_ exceptionKey, m *Meter) {
		onEvict(m)
	})
	if err != nil {
		return nil, err
	}
	return &exceptionCache{lru: lru}, nil
}

func (c *exceptionCache) mark(key exceptionKey, create func() *Meter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.lru.Get(key)
	if !ok {
		m = create()
		c.lru.Add(key, m)
	}
	m.Mark(1)
}

func (c *exceptionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
