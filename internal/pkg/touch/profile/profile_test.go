package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evtouch/evtouch/internal/pkg/input"
	"github.com/evtouch/evtouch/internal/pkg/touch"
)

var testCaps = touch.Capabilities{
	MinSlot: 0,
	MaxSlot: 9,
	RangeX:  touch.AxisRange{Min: 0, Max: 4095},
	RangeY:  touch.AxisRange{Min: 0, Max: 4095},
}

func TestParseProfile(t *testing.T) {
	data := []byte(`
identifier:
  bus: 0x18
  vendor: 0x0eef
  product: 0x0005
  version: 0x0100

width: 800
height: 480
invert_y: true

range_x:
  min: 100
  max: 4000
`)

	p, err := ParseProfile(data)
	assert.NoError(t, err)
	assert.Equal(t, input.DeviceID{Bus: 0x18, Vendor: 0x0eef, Product: 0x0005, Version: 0x0100}, p.ID)
	assert.Equal(t, 800.0, p.Width)
	assert.Equal(t, 480.0, p.Height)
	assert.False(t, p.InvertX)
	assert.True(t, p.InvertY)
	assert.Equal(t, &Range{Min: 100, Max: 4000}, p.RangeX)
	assert.Nil(t, p.RangeY)
}

func TestParseProfileMalformed(t *testing.T) {
	_, err := ParseProfile([]byte("identifier: [not, a, mapping]"))
	assert.Error(t, err)
}

func TestFindFallsBackToDefault(t *testing.T) {
	id := input.DeviceID{Bus: 3, Vendor: 1, Product: 2, Version: 4}
	profiles := ProfileMap{
		id:               {ID: id, Width: 800},
		input.DeviceID{}: {Width: 1024},
	}

	p, err := profiles.Find(id)
	assert.NoError(t, err)
	assert.Equal(t, 800.0, p.Width)

	p, err = profiles.Find(input.DeviceID{Bus: 99})
	assert.NoError(t, err)
	assert.Equal(t, 1024.0, p.Width)

	_, err = ProfileMap{}.Find(id)
	assert.ErrorIs(t, err, DefaultProfileNotFound)
}

func TestMapperConfigDerivation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		profile  Profile
		expected touch.MapperConfig
	}{
		{
			name:    "zero extent is identity",
			profile: Profile{},
			expected: touch.MapperConfig{
				ScaleX: 1, ScaleY: 1,
				RangeX: testCaps.RangeX, RangeY: testCaps.RangeY,
			},
		},
		{
			name:    "scaled to screen",
			profile: Profile{Width: 819, Height: 819, InvertY: true},
			expected: touch.MapperConfig{
				ScaleX: 0.2, ScaleY: 0.2, InvertY: true,
				RangeX: testCaps.RangeX, RangeY: testCaps.RangeY,
			},
		},
		{
			name:    "range override wins over capability report",
			profile: Profile{RangeX: &Range{Min: 0, Max: 2047}},
			expected: touch.MapperConfig{
				ScaleX: 1, ScaleY: 1,
				RangeX: touch.AxisRange{Min: 0, Max: 2047}, RangeY: testCaps.RangeY,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.profile.MapperConfig(testCaps))
		})
	}
}
