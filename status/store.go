// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package status

import "context"

// Store is "any KV supporting hash-field get/set/del" (spec §6). Fields
// "status" and "specification" are both JSON strings under one key.
//
// GetStatus must degrade a deserialization failure to (nil, nil) rather
// than propagating the error: status is advisory, not authoritative
// (spec §7 "Status deserialization failures degrade to 'no prior status'").
type Store interface {
	PutSpec(ctx context.Context, key Key, spec []byte) error
	PutStatus(ctx context.Context, key Key, rec Record) error
	GetStatus(ctx context.Context, key Key) (*Record, error)
	Delete(ctx context.Context, key Key) error
}

// Resolve looks up a status record for a bare uuid without knowing its
// chain kind ahead of time, trying the base prefix then the app prefix
// (spec §4.4 "a helper that resolves either form given just the uuid").
func Resolve(ctx context.Context, store Store, uuid string) (*Record, Key, error) {
	if rec, err := store.GetStatus(ctx, BaseKey(uuid)); err != nil {
		return nil, Key{}, err
	} else if rec != nil {
		return rec, BaseKey(uuid), nil
	}
	rec, err := store.GetStatus(ctx, AppKey(uuid))
	if err != nil {
		return nil, Key{}, err
	}
	return rec, AppKey(uuid), nil
}
