package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  int
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = v
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.verErr }

func TestRunDefaultsToUp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, &fakeMigrator{upErr: migrate.ErrNoChange}, &out))
	assert.Equal(t, "schema up to date\n", out.String())

	assert.Error(t, run([]string{"up"}, &fakeMigrator{upErr: errors.New("dirty database")}, &out))
}

func TestRunDownAndForce(t *testing.T) {
	m := &fakeMigrator{}
	var out bytes.Buffer
	require.NoError(t, run([]string{"down"}, m, &out))
	assert.Equal(t, []int{-1}, m.steps)

	require.NoError(t, run([]string{"force", "2"}, m, &out))
	assert.Equal(t, 2, m.forced)

	assert.Error(t, run([]string{"force"}, m, &out))
	assert.Error(t, run([]string{"force", "two"}, m, &out))
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &fakeMigrator{version: 2, dirty: true}, &out))
	assert.Equal(t, "version 2 (dirty=true)\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"version"}, &fakeMigrator{verErr: migrate.ErrNilVersion}, &out))
	assert.Equal(t, "no migrations applied\n", out.String())
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	assert.EqualError(t, run([]string{"sideways"}, &fakeMigrator{}, &bytes.Buffer{}), usage)
}
