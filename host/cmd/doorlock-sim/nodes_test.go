package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doorlock/control"
	"doorlock/host/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePersistsOnPasswordSet(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Image = filepath.Join(t.TempDir(), "eeprom.bin")

	s, err := openStore(cfg)
	require.NoError(t, err)
	s.bus.Poke(control.BaseAddress, '7')

	h := &hooks{store: s}
	h.event(control.EventGateOpening)
	_, err = os.Stat(cfg.Bus.Image)
	assert.True(t, os.IsNotExist(err), "image written before a password was set")

	h.event(control.EventPasswordSet)
	reopened, err := openStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, byte('7'), reopened.bus.Peek(control.BaseAddress))
}

func TestOpenStoreRejectsShortImage(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Image = filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(cfg.Bus.Image, []byte{1, 2, 3}, 0o644))

	_, err := openStore(cfg)
	assert.Error(t, err)
}

func TestScaledSleep(t *testing.T) {
	sleep := scaledSleep(1000)
	start := time.Now()
	require.NoError(t, sleep(context.Background(), time.Second))
	assert.True(t, time.Since(start) < 500*time.Millisecond)
}

func TestDumpImageThroughRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Bus.Image = filepath.Join(t.TempDir(), "eeprom.bin")

	s, err := openStore(cfg)
	require.NoError(t, err)
	for i, c := range []byte("1234") {
		s.bus.Poke(control.BaseAddress+uint16(i), c)
	}
	s.save()

	var out bytes.Buffer
	require.NoError(t, dumpImage(cfg, &out, "doorlock-sim-dump"))
	assert.Contains(t, out.String(), "31 32 33 34")
	assert.Contains(t, out.String(), "doorlock-sim-dump")
}
