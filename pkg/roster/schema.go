package roster

import (
	"fmt"
	"strconv"
)

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so that
// several Roster deployments can share a Redis server.
//
// Key pattern: roster:{instance_name}:{entity}[:{position}]

// EntryKey returns the Redis key for an entry hash.
// Pattern: roster:{instance_name}:entry:{position}
func EntryKey(instanceName string, position int) string {
	return fmt.Sprintf("roster:%s:entry:%d", instanceName, position)
}

// PositionsKey returns the Redis key for the position index ZSET.
// Pattern: roster:{instance_name}:positions
func PositionsKey(instanceName string) string {
	return fmt.Sprintf("roster:%s:positions", instanceName)
}

// EntryEventsChannel returns the Pub/Sub channel name for entry events.
// Pattern: roster:{instance_name}:entry_events
func EntryEventsChannel(instanceName string) string {
	return fmt.Sprintf("roster:%s:entry_events", instanceName)
}

// positionMember is the ZSET member used for a position.
func positionMember(position int) string {
	return strconv.Itoa(position)
}
