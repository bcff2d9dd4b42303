package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "crest/pkg/domain"
)

func TestJurisdictionPermits(t *testing.T) {
	t.Run("allow-only admits listed codes", func(t *testing.T) {
		cfg := JurisdictionConfig{Allow: []uint16{840, 76}, Policy: JurisdictionAllowOnly}
		assert.True(t, cfg.Permits(840))
		assert.False(t, cfg.Permits(826))
	})

	t.Run("deny-only rejects listed codes", func(t *testing.T) {
		cfg := JurisdictionConfig{Deny: []uint16{408}, Policy: JurisdictionDenyOnly}
		assert.False(t, cfg.Permits(408))
		assert.True(t, cfg.Permits(840))
	})

	t.Run("deny wins when both modes are set", func(t *testing.T) {
		cfg := JurisdictionConfig{
			Allow:  []uint16{840},
			Deny:   []uint16{840},
			Policy: JurisdictionAllowOnly | JurisdictionDenyOnly,
		}
		assert.False(t, cfg.Permits(840))
	})

	t.Run("no mode bits means unrestricted", func(t *testing.T) {
		assert.True(t, JurisdictionConfig{}.Permits(0))
	})
}

func TestLockupSchedule(t *testing.T) {
	t.Run("validate enforces ordering", func(t *testing.T) {
		require.NoError(t, LockupSchedule{Start: 0, Cliff: 50, End: 150}.Validate())
		require.Error(t, LockupSchedule{Start: 60, Cliff: 50, End: 150}.Validate())
		require.Error(t, LockupSchedule{Start: 0, Cliff: 50, End: 40}.Validate())
	})

	t.Run("vested fraction clamps to [0, 1]", func(t *testing.T) {
		s := LockupSchedule{Start: 0, Cliff: 50, End: 150, LinearVesting: true}

		num, den := s.VestedNumerator(40)
		assert.Zero(t, num)

		num, den = s.VestedNumerator(100)
		assert.Equal(t, int64(50), num)
		assert.Equal(t, int64(100), den)

		num, den = s.VestedNumerator(9999)
		assert.Equal(t, num, den)
	})

	t.Run("degenerate schedule is a pure cliff", func(t *testing.T) {
		s := LockupSchedule{Start: 0, Cliff: 100, End: 100, LinearVesting: true}

		num, _ := s.VestedNumerator(99)
		assert.Zero(t, num)

		num, den := s.VestedNumerator(100)
		assert.Equal(t, num, den)
	})
}

func TestTransferWindowConfig(t *testing.T) {
	t.Run("empty allowed hours admits every hour", func(t *testing.T) {
		cfg := TransferWindowConfig{}
		for hour := 0; hour < 24; hour++ {
			assert.True(t, cfg.HourAllowed(hour))
		}
	})

	t.Run("restricted hours", func(t *testing.T) {
		cfg := TransferWindowConfig{AllowedHours: []uint8{9, 10, 11}}
		assert.True(t, cfg.HourAllowed(10))
		assert.False(t, cfg.HourAllowed(3))
	})

	t.Run("blocked days", func(t *testing.T) {
		cfg := TransferWindowConfig{BlockedDays: []uint8{0, 6}}
		assert.True(t, cfg.DayBlocked(0))
		assert.False(t, cfg.DayBlocked(3))
	})
}

func TestMembership(t *testing.T) {
	list := SanctionsList{Addresses: []id.Identity{"bad-1", "bad-2"}}
	assert.True(t, list.Contains("bad-1"))
	assert.False(t, list.Contains("good-1"))

	allow := Allowlist{Members: []id.Identity{"m-1"}}
	assert.True(t, allow.Contains("m-1"))
	assert.False(t, allow.Contains("m-2"))
}
