package redis

import "fmt"

// Key prefix for all word library data
const keyPrefix = "wordbattle"

// wordKey returns the Redis key holding one word's JSON record
func wordKey(word string) string {
	return fmt.Sprintf("%s:word:%s", keyPrefix, word)
}

// wordIndexKey returns the Redis key for the SET of all stored words
func wordIndexKey() string {
	return fmt.Sprintf("%s:idx:words", keyPrefix)
}
