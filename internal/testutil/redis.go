// Package testutil provides an isolated registry store for command and
// server tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/roster/pkg/roster"
)

// Env is an isolated registry backed by an in-process Redis.
type Env struct {
	T            *testing.T
	Redis        *miniredis.Miniredis
	Client       *roster.Client
	InstanceName string
	Ctx          context.Context
}

// NewEnv starts miniredis and connects a registry client for a unique
// instance name. Everything is torn down with the test.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	mr := miniredis.RunT(t)
	instanceName := fmt.Sprintf("test-%s", time.Now().Format("150405-000000"))

	client, err := roster.NewClientFromURL("redis://"+mr.Addr(), instanceName)
	require.NoError(t, err, "Failed to create registry client")
	t.Cleanup(func() { client.Close() })

	return &Env{
		T:            t,
		Redis:        mr,
		Client:       client,
		InstanceName: instanceName,
		Ctx:          context.Background(),
	}
}

// URL returns the redis:// URL of the environment's server.
func (env *Env) URL() string {
	return "redis://" + env.Redis.Addr()
}

// Seed appends entries in the order given.
func (env *Env) Seed(entries ...roster.Entry) {
	env.T.Helper()
	for i := range entries {
		require.NoError(env.T, env.Client.Append(env.Ctx, &entries[i]), "Failed to seed %s", entries[i])
	}
}

// Corrupt overwrites one field of a stored entry without validation,
// simulating data written by an older or broken writer.
func (env *Env) Corrupt(position int, field, value string) {
	env.T.Helper()
	env.Redis.HSet(roster.EntryKey(env.InstanceName, position), field, value)
}

// RequireStored asserts the registry holds exactly want, in order.
func (env *Env) RequireStored(want ...roster.Entry) {
	env.T.Helper()
	got, err := env.Client.ListAll(env.Ctx)
	require.NoError(env.T, err)
	if len(want) == 0 {
		require.Empty(env.T, got)
		return
	}
	require.Equal(env.T, want, got)
}
