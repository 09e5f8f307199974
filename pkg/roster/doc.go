// Package roster provides the typed registry entry model and the Redis-backed
// registry store for Roster.
//
// # Overview
//
// The registry is a single flat collection of entries. Each entry carries a
// unique integer position, a display name and a lifecycle status. Position is
// the only ordering key: display order never depends on insertion order or on
// any identifier assigned by Redis.
//
// # Redis Schema
//
// All keys and channels are namespaced by instance name so that several
// deployments can share one Redis server:
//
// Entries: roster:{instance_name}:entry:{position} (hash)
// Position index: roster:{instance_name}:positions (ZSET, score = position)
// Entry events: roster:{instance_name}:entry_events (Pub/Sub)
//
// # Usage Example
//
//	client, err := roster.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	entry := &roster.Entry{Position: 2, Name: "Raymond", Status: roster.StatusActive}
//	if err := client.Append(ctx, entry); err != nil {
//		log.Fatal(err)
//	}
//
//	entries, err := client.ListAll(ctx) // ascending by position
//
// # Design Principles
//
// - Append is atomic per entry and refuses to overwrite an existing position
// - ListAll never resolves duplicate positions silently
// - Update is a separate, explicit operation with patch semantics
// - Redacted entries never expose their name through String or LogValue
package roster
