package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key tracking a user's active login JTI.
func (r *CacheKeyStruct) UserSessionKey(userID int64) string {
	return fmt.Sprintf("login:%d", userID)
}

// QuizSnapshotKey returns the cache key for a quiz set's immutable snapshot.
func (r *CacheKeyStruct) QuizSnapshotKey(quizSetID int64) string {
	return fmt.Sprintf("quiz:%d:snapshot", quizSetID)
}

var CacheKey = NewCacheKeyStruct()
