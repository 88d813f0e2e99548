package state

import (
	"context"
	"fmt"
	"log"
	"time"
)

//go:generate moq -out mocks/storage.go -pkg mocks -skip-ensure -fmt goimports . Storage

// Storage keeps string values under named keys
type Storage interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Persistence reads and writes subscriptions as a JSON array in a Storage
type Persistence struct {
	storage Storage
	timeout time.Duration
}

// NewPersistence makes a persistence with a timeout for loads made by the reducer
func NewPersistence(storage Storage, timeout time.Duration) *Persistence {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persistence{storage: storage, timeout: timeout}
}

// LoadSubscriptions implements SubscriptionLoader
func (p *Persistence) LoadSubscriptions(key string) ([]Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	raw, err := p.storage.GetSetting(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions %q: %w", key, err)
	}
	subs, err := DecodeSubscriptions(raw)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions %q: %w", key, err)
	}
	return subs, nil
}

// SaveSubscriptions stores subs under key
func (p *Persistence) SaveSubscriptions(ctx context.Context, key string, subs []Subscription) error {
	raw, err := EncodeSubscriptions(subs)
	if err != nil {
		return fmt.Errorf("save subscriptions %q: %w", key, err)
	}
	if err := p.storage.SetSetting(ctx, key, raw); err != nil {
		return fmt.Errorf("save subscriptions %q: %w", key, err)
	}
	return nil
}

// Listener returns a subscriptions listener saving every change under the key returned by keyFn
func (p *Persistence) Listener(keyFn func() string) *FuncListener {
	return ListenFunc(func(ctx context.Context, field Field, value any) error {
		subs, ok := value.([]Subscription)
		if !ok {
			return fmt.Errorf("unexpected %s value %T", field, value)
		}
		key := keyFn()
		if err := p.SaveSubscriptions(ctx, key, subs); err != nil {
			return err
		}
		log.Printf("[DEBUG] saved %d subscriptions under %q", len(subs), key)
		return nil
	})
}
