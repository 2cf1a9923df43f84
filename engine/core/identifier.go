package core

import "hash/crc32"

// StringToHash derives the bone hash used throughout the skeleton from a
// bone name.
func StringToHash(name string) int32 {
	return int32(crc32.ChecksumIEEE([]byte(name)))
}
