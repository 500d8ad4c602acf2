package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/chatguard/chatguard/automod/cachestore"
)

// Answers whether a sender is exempt from moderation in a chat (eg, administrators).
type AdminOracle interface {
	IsExempt(ctx context.Context, chatID, userID int64) (bool, error)
}

// Exempts a fixed set of user ids in every chat.
type StaticOracle struct {
	UserIDs map[int64]bool
}

var _ AdminOracle = (*StaticOracle)(nil)

func NewStaticOracle(ids []int64) *StaticOracle {
	o := StaticOracle{UserIDs: make(map[int64]bool, len(ids))}
	for _, id := range ids {
		o.UserIDs[id] = true
	}
	return &o
}

func (o *StaticOracle) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	return o.UserIDs[userID], nil
}

// Exempt if any of the wrapped oracles say so. Errors are only returned if no oracle answered yes.
type AnyOracle []AdminOracle

func (o AnyOracle) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	var errs []error
	for _, inner := range o {
		ok, err := inner.IsExempt(ctx, chatID, userID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, errors.Join(errs...)
}

// Caches answers from a slower oracle. Failed lookups are not cached.
type CachedOracle struct {
	Inner AdminOracle
	Cache cachestore.CacheStore
}

var _ AdminOracle = (*CachedOracle)(nil)

func (o *CachedOracle) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	key := fmt.Sprintf("%d/%d", chatID, userID)
	val, err := o.Cache.Get(ctx, "admin", key)
	if err == nil && val != "" {
		return strconv.ParseBool(val)
	}
	ok, err := o.Inner.IsExempt(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	// a cache write failure doesn't change the answer
	_ = o.Cache.Set(ctx, "admin", key, strconv.FormatBool(ok))
	return ok, nil
}

// Purges the cached answer, eg when a member's status changes.
func (o *CachedOracle) Purge(ctx context.Context, chatID, userID int64) error {
	return o.Cache.Purge(ctx, "admin", fmt.Sprintf("%d/%d", chatID, userID))
}
