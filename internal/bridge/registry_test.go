package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	clip := &fakeClipboard{}
	require.NoError(t, reg.Register(CapClipboard, clip))

	got, err := reg.Resolve(CapClipboard)
	require.NoError(t, err)
	assert.Same(t, clip, got)

	_, err = reg.Resolve(CapWindow)
	assert.True(t, errors.Is(err, ErrUnsupportedCapability))
}

func TestRegistryRegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *Registry)
		cap     Capability
		backend any
		wantErr error
	}{
		{
			name:    "duplicate",
			setup:   func(r *Registry) { _ = r.Register(CapSystem, fakeSystem{}) },
			cap:     CapSystem,
			backend: fakeSystem{},
			wantErr: ErrBackendAlreadyRegistered,
		},
		{
			name:    "sealed",
			setup:   func(r *Registry) { r.Seal() },
			cap:     CapSystem,
			backend: fakeSystem{},
			wantErr: ErrRegistrySealed,
		},
		{
			name:    "wrong interface",
			cap:     CapWindow,
			backend: fakeSystem{},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "nil backend",
			cap:     CapClipboard,
			backend: nil,
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "unknown capability",
			cap:     Capability("camera"),
			backend: fakeSystem{},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if tt.setup != nil {
				tt.setup(reg)
			}
			err := reg.Register(tt.cap, tt.backend)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRegistryCapabilitiesAndDescribe(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(CapWindow, newFakeWindow()))
	require.NoError(t, reg.Register(CapClipboard, &fakeClipboard{}))
	require.NoError(t, reg.Register(CapSystem, fakeSystem{}))

	assert.Equal(t, []Capability{CapClipboard, CapSystem, CapWindow}, reg.Capabilities())
	assert.Equal(t, map[Capability]string{
		CapClipboard: "fake",
		CapSystem:    "fake",
		CapWindow:    "fake",
	}, reg.Describe())
}

func TestResolveAs(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(CapSystem, fakeSystem{}))

	sys, err := resolveAs[SystemBackend](reg, CapSystem)
	require.NoError(t, err)
	assert.Equal(t, "x86_64", sys.Arch())

	_, err = resolveAs[ClipboardBackend](reg, CapSystem)
	assert.True(t, errors.Is(err, ErrUnsupportedCapability))
}
