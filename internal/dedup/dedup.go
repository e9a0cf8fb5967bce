// Package dedup provides message group and deduplication identifiers for FIFO queues.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// GroupID computes the FIFO message group for an entity.
// With numGroups<=0, every entity gets its own group (strict per-entity ordering).
// With numGroups>0, entities are spread across that many groups by hash, which
// bounds consumer parallelism at numGroups while keeping per-entity ordering.
func GroupID(entityID string, numGroups int) string {
	if numGroups <= 0 {
		return entityID
	}
	h := fnv.New32a()
	h.Write([]byte(entityID))
	group := h.Sum32() % uint32(numGroups)
	return fmt.Sprintf("group-%02x", group)
}

// DeduplicationID identifies one submission of a command so the queue drops
// resends of that submission within its deduplication window. Distinct
// submissions never collide, even when their fields are identical.
func DeduplicationID(commandType, commandID string) string {
	h := sha256.Sum256([]byte(commandType + "#" + commandID))
	return hex.EncodeToString(h[:16]) // 128-bit hash as hex
}
