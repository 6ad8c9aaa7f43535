// Package mongostore mirrors session records into a MongoDB collection.
// Call EnsureIndexes once at startup to index sessions by user.
package mongostore
