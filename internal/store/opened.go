package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// DefaultNamespace prefixes every opened-set key.
const DefaultNamespace = "carsk_opened_gifts"

var _ calendar.OpenedStore = (*OpenedSets)(nil)

// OpenedSets stores opened-day indices as a JSON array of ints.
type OpenedSets struct {
	KV        KV
	Namespace string
}

// NewOpenedSets wraps kv. An empty namespace uses DefaultNamespace.
func NewOpenedSets(kv KV, namespace string) *OpenedSets {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &OpenedSets{KV: kv, Namespace: namespace}
}

// Key returns the storage key for a visitor.
func (o *OpenedSets) Key(visitor string) string {
	return o.Namespace + ":" + visitor
}

func (o *OpenedSets) LoadOpened(ctx context.Context, key string) ([]int, error) {
	raw, err := o.KV.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var indices []int
	if err := json.Unmarshal(raw, &indices); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return indices, nil
}

func (o *OpenedSets) SaveOpened(ctx context.Context, key string, indices []int) error {
	sorted := append([]int{}, indices...)
	sort.Ints(sorted)
	raw, err := json.Marshal(sorted)
	if err != nil {
		return err
	}
	return o.KV.Put(ctx, key, raw)
}

func (o *OpenedSets) DeleteOpened(ctx context.Context, key string) error {
	return o.KV.Delete(ctx, key)
}
