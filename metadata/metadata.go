// Package metadata implements flat string key/value collections attached to stored files.
package metadata

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrDuplicateKey is returned when a collection contains the same key more than once.
var ErrDuplicateKey = errors.New("duplicate metadata key")

// Item is a single key/value pair.
type Item struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Equal determines whether two items are equal, ignoring case.
func (i Item) Equal(other Item) bool {
	return strings.EqualFold(i.Key, other.Key) && strings.EqualFold(i.Value, other.Value)
}

func (i Item) String() string {
	return i.Key + "=" + i.Value
}

// Items is an ordered collection of metadata items.
type Items []Item

// ToMap converts the items to a map. Keys must be unique ignoring case, since remote stores
// do not preserve the case of metadata keys.
func (m Items) ToMap() (map[string]string, error) {
	result := make(map[string]string, len(m))
	seen := make(map[string]string, len(m))

	for _, it := range m {
		lk := strings.ToLower(it.Key)

		if prev, ok := seen[lk]; ok {
			return nil, errors.Wrapf(ErrDuplicateKey, "%q and %q", prev, it.Key)
		}

		seen[lk] = it.Key
		result[it.Key] = it.Value
	}

	return result, nil
}

// Get returns the value of the item with the provided key, ignoring case.
func (m Items) Get(key string) (string, bool) {
	for _, it := range m {
		if strings.EqualFold(it.Key, key) {
			return it.Value, true
		}
	}

	return "", false
}

// Append returns a new collection with the provided items appended, failing when
// any of the new keys already exists.
func (m Items) Append(items ...Item) (Items, error) {
	result := append(Items{}, m...)
	result = append(result, items...)

	if _, err := result.ToMap(); err != nil {
		return nil, err
	}

	return result, nil
}

// Keys returns the keys of all items in order.
func (m Items) Keys() []string {
	result := make([]string, 0, len(m))

	for _, it := range m {
		result = append(result, it.Key)
	}

	return result
}

// Equal determines whether two collections contain equal items in the same order.
func (m Items) Equal(other Items) bool {
	if len(m) != len(other) {
		return false
	}

	for i := range m {
		if !m[i].Equal(other[i]) {
			return false
		}
	}

	return true
}

// FromMap converts a map to a collection of items sorted by key.
func FromMap(m map[string]string) Items {
	result := make(Items, 0, len(m))

	for k, v := range m {
		result = append(result, Item{Key: k, Value: v})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// ParseKeyValues parses "key=value" strings into a collection of items.
func ParseKeyValues(pairs []string) (Items, error) {
	var result Items

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("invalid metadata item %q, expected key=value", p)
		}

		result = append(result, Item{Key: k, Value: v})
	}

	if _, err := result.ToMap(); err != nil {
		return nil, err
	}

	return result, nil
}
