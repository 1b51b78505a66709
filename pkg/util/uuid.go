package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// Md5ThenHex is a quick hasher, used for picture digests in logs
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashUUID fingerprints any JSON-serialisable value as a stable UUID, so runs
// with identical options can be matched up across encode and decode logs.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	hash := md5.Sum(raw)
	id, err := uuid.FromBytes(hash[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// RunID names one CLI invocation.
func RunID() string { return uuid.NewString() }
