package database

import (
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockKeys(t *testing.T) {
	t.Run("Stable per code", func(t *testing.T) {
		c1, o1 := lockKeys("ABCD")
		c2, o2 := lockKeys("ABCD")
		assert.Equal(t, c1, c2)
		assert.Equal(t, o1, o2)
		assert.Equal(t, sessionLockClassID, c1)
	})

	t.Run("Distinct codes get distinct keys", func(t *testing.T) {
		_, a := lockKeys("ABCD")
		_, b := lockKeys("WXYZ")
		assert.NotEqual(t, a, b)
	})

	t.Run("Objid is the FNV-32a of the code", func(t *testing.T) {
		h := fnv.New32a()
		h.Write([]byte("QRST"))
		_, objID := lockKeys("QRST")
		assert.Equal(t, int32(h.Sum32()), objID)
	})
}

func TestOidKeys(t *testing.T) {
	// pg_locks exposes classid/objid as unsigned oids; a key that is negative
	// as int32 must round-trip through the unsigned representation
	classID, objID := oidKeys("ABCD")
	assert.GreaterOrEqual(t, classID, int64(0))
	assert.GreaterOrEqual(t, objID, int64(0))
	assert.LessOrEqual(t, classID, int64(1<<32-1))
	assert.LessOrEqual(t, objID, int64(1<<32-1))

	c32, o32 := lockKeys("ABCD")
	assert.Equal(t, int64(uint32(c32)), classID)
	assert.Equal(t, int64(uint32(o32)), objID)
}
