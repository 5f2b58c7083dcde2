package utils

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomInt31 生成一个安全的正随机31位整数
func RandomInt31() int32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("generate random int31 failed")
	}

	n := int32(binary.BigEndian.Uint32(buf[:]) & 0x7FFFFFFF)
	if n == 0 {
		n = 1
	}
	return n
}
