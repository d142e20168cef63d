package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TestDefinitionKey returns the cache key for a test's definition JSON
func (r *CacheKeyStruct) TestDefinitionKey(testID string) string {
	return fmt.Sprintf("test:%s:definition", testID)
}

// TestVariantKey returns the cache key for a test's band variant
func (r *CacheKeyStruct) TestVariantKey(testID string) string {
	return fmt.Sprintf("test:%s:variant", testID)
}

// SubmissionAnswersKey returns the cache key for a submission's autosaved answers
func (r *CacheKeyStruct) SubmissionAnswersKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:answers", submissionID)
}

// SubmissionTestKey returns the cache key mapping a submission to its test
func (r *CacheKeyStruct) SubmissionTestKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:test", submissionID)
}

var CacheKey = NewCacheKeyStruct()
