package common

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 returns a cluster-unique int64 identifier.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

const couponCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCode returns a human-readable random code of n characters, skipping
// ambiguous glyphs (0/O, 1/I).
func RandomCode(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(couponCodeChars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure is unrecoverable for code generation
			panic(err)
		}
		sb.WriteByte(couponCodeChars[idx.Int64()])
	}
	return sb.String()
}

// Today truncates t to midnight in t's location. Date comparisons in the
// membership and check-in logic are whole-day comparisons.
func Today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
