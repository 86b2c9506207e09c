package social

import (
	"crypto/md5"
	"encoding/hex"
)

// DMChannelIDPrefix is the fixed tag prepended to every derived DM channel id.
const DMChannelIDPrefix = "dm_"

// dmChannelIDSeparator joins the canonical pair before hashing. Together with
// the md5 digest it forms a frozen compatibility contract: existing channel
// rows were created by the legacy backend as
// md5(smallerID + "_" + largerID), hex-encoded, prefixed with "dm_".
// Neither the separator nor the hash may change without migrating that data.
const dmChannelIDSeparator = "_"

// CanonicalPair normalizes an unordered pair of user ids into a single
// consistent order, smaller id first under plain byte-wise string comparison.
// Every place that needs one key for a pair of users (DM channel identity,
// friendship rows) goes through this function, so (a, b) and (b, a) always
// collapse to the same pair.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// DMChannelID derives the stable channel id for the direct-message channel
// between two users. It is deterministic and commutative: the same pair of
// users yields the same id forever, regardless of argument order.
//
// md5 is used purely as a compact fingerprint of the canonical pair, not as a
// security primitive; the pair itself is the true key and a hash collision is
// indistinguishable from (and treated the same as) the same pair.
func DMChannelID(userID1, userID2 string) string {
	a, b := CanonicalPair(userID1, userID2)
	sum := md5.Sum([]byte(a + dmChannelIDSeparator + b))
	return DMChannelIDPrefix + hex.EncodeToString(sum[:])
}
