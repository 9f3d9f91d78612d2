package redis

import (
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/payout"
)

const (
	keyPrefix       = "ct:"
	activeLobbies   = keyPrefix + "lobby:active"
	maxWatchRetries = 3
)

// objectTag wraps the object id in a hash tag so all keys of one object land
// in the same cluster slot.
func objectTag(objectID contest.ObjectID) string {
	return keyPrefix + "{" + string(objectID) + "}"
}

func configKey(kind string, objectID contest.ObjectID) string {
	return objectTag(objectID) + ":" + kind + ":config"
}

func statusKey(kind string, key contest.RecordKey) string {
	return memberStatusKey(kind, key.ObjectID, epochMember(key.Epoch))
}

func memberStatusKey(kind string, objectID contest.ObjectID, member string) string {
	return objectTag(objectID) + ":" + kind + ":status:" + member
}

func epochsKey(kind string, objectID contest.ObjectID) string {
	return objectTag(objectID) + ":" + kind + ":epochs"
}

func payoutKey(source payout.Source, key contest.RecordKey) string {
	return objectTag(key.ObjectID) + ":payout:" + string(source) + ":" + epochMember(key.Epoch)
}

func payoutIndexKey(objectID contest.ObjectID) string {
	return objectTag(objectID) + ":payouts"
}

// epochMember zero-pads the epoch so lexical order in a sorted set is numeric order.
func epochMember(epoch contest.Epoch) string {
	return fmt.Sprintf("%020d", uint64(epoch))
}

func activeMember(key contest.RecordKey) string {
	return epochMember(key.Epoch) + "|" + string(key.ObjectID)
}
