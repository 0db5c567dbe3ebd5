// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CountWindow is how long repeat downloads of the same document by the
// same visitor do not increment the download counter.
const CountWindow = 2 * time.Second

// DownloadGate deduplicates download counting per (document, visitor)
// pair using a short-lived Valkey key. The download itself is never
// blocked; the gate only decides whether the counter moves.
type DownloadGate struct {
	client *redis.Client
}

// NewDownloadGate creates a gate backed by the given Valkey client.
func NewDownloadGate(client *redis.Client) *DownloadGate {
	return &DownloadGate{client: client}
}

// ShouldCount reports whether this download should increment the
// counter. The first call for a (document, visitor) pair within the
// window wins; repeats lose until the key expires. Gate failures count
// the download: over-counting beats refusing service.
func (g *DownloadGate) ShouldCount(ctx context.Context, docID uuid.UUID, visitorID string) bool {
	key := "dlgate:" + docID.String() + ":" + visitorID
	ok, err := g.client.SetNX(ctx, key, 1, CountWindow).Result()
	if err != nil {
		slog.Warn("download gate unavailable, counting download", "document", docID, "error", err)
		return true
	}
	return ok
}
