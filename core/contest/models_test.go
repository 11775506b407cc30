package contest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/hekima/shindano/core"
)

func Test_Contest_StatusAt(t *testing.T) {
	start := time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	c := Contest{StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"before start", start.Add(-time.Second), StatusNotStarted},
		{"at start", start, StatusUnderway},
		{"between", start.Add(time.Hour), StatusUnderway},
		{"at end", end, StatusEnded},
		{"after end", end.Add(time.Second), StatusEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.StatusAt(tt.now))
		})
	}
}

func Test_Contest_Detail(t *testing.T) {
	now := time.Now().UTC()
	c := Contest{
		ID:              1,
		Title:           "Round 1",
		Password:        "pw123",
		Visible:         true,
		AllowedIPRanges: []string{"10.0.0.0/8"},
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
	}

	d := c.Detail(now)
	assert.Equal(t, c.ID, d.ID)
	assert.Equal(t, c.Title, d.Title)
	assert.Equal(t, StatusUnderway, d.Status)

	ad := c.AdminDetail(now)
	assert.Equal(t, c.Password, ad.Password)
	assert.Equal(t, c.AllowedIPRanges, ad.AllowedIPRanges)
	assert.Equal(t, StatusUnderway, ad.Status)
}

func Test_NewContest_Validate(t *testing.T) {
	now := time.Now().UTC()
	valid := func() NewContest {
		return NewContest{
			Title:       "Round 1",
			Description: "desc",
			StartTime:   now,
			EndTime:     now.Add(time.Hour),
			RuleType:    RuleACM,
		}
	}

	t.Run("ok", func(t *testing.T) {
		nc := valid()
		assert.NoError(t, nc.Validate())
	})

	t.Run("title is cleaned", func(t *testing.T) {
		nc := valid()
		nc.Title = "  Round 1  "
		require.NoError(t, nc.Validate())
		assert.Equal(t, "Round 1", nc.Title)
	})

	t.Run("start must precede end", func(t *testing.T) {
		nc := valid()
		nc.EndTime = nc.StartTime
		err := nc.Validate()
		require.Error(t, err)
		assert.IsType(t, &core.ValidationError{}, err)
		assert.EqualError(t, err, "Start time must occur earlier than end time")
	})

	t.Run("first bad cidr wins", func(t *testing.T) {
		nc := valid()
		nc.AllowedIPRanges = []string{"10.0.0.0/8", "not-a-range", "10.0.0.0/33"}
		err := nc.Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "not-a-range is not a valid cidr network")
	})

	t.Run("plain ip is not a network", func(t *testing.T) {
		nc := valid()
		nc.AllowedIPRanges = []string{"192.168.1.1"}
		err := nc.Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "192.168.1.1 is not a valid cidr network")
	})

	t.Run("rule type is constrained", func(t *testing.T) {
		nc := valid()
		nc.RuleType = "IOI"
		assert.Error(t, nc.Validate())
	})
}

func Test_UpdateContest_Validate(t *testing.T) {
	now := time.Now().UTC()
	valid := func() UpdateContest {
		return UpdateContest{
			ID:          1,
			Title:       "Round 1",
			Description: "desc",
			StartTime:   now,
			EndTime:     now.Add(time.Hour),
		}
	}

	t.Run("start must precede end", func(t *testing.T) {
		uc := valid()
		uc.StartTime, uc.EndTime = uc.EndTime, uc.StartTime
		err := uc.Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "Start time must occur earlier than end time")
	})

	t.Run("password length is bounded like the create path", func(t *testing.T) {
		uc := valid()
		uc.Password = null.StringFrom(strings.Repeat("x", 33))
		err := uc.Validate()
		require.Error(t, err)
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "password", vErr.Fields[0].Field)
	})

	t.Run("32 characters is still fine", func(t *testing.T) {
		uc := valid()
		uc.Password = null.StringFrom(strings.Repeat("x", 32))
		assert.NoError(t, uc.Validate())
	})

	t.Run("null password skips the bound", func(t *testing.T) {
		uc := valid()
		assert.NoError(t, uc.Validate())
	})
}
