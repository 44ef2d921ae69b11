package premium

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckUsage(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"unlimited", Status{Unlimited: true}, true},
		{"premium", Status{IsPremium: true}, true},
		{"trial with usages", Status{HasTrial: true, DailyUsagesLeft: 1}, true},
		{"trial exhausted", Status{HasTrial: true, DailyUsagesLeft: 0}, false},
		{"no trial", Status{DailyUsagesLeft: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.CheckUsage())
		})
	}
}

func TestBadge(t *testing.T) {
	assert.Equal(t, Badge{Kind: BadgeUnlimited, Level: LevelOK}, Status{Unlimited: true}.Badge())
	assert.Equal(t, Badge{Kind: BadgeNone}, Status{}.Badge())

	b := Status{HasTrial: true, IsFreeTrial: true, DailyUsagesLeft: 4}.Badge()
	assert.Equal(t, Badge{Kind: BadgeTrial, Used: 1, Total: 5, Left: 4, Level: LevelOK}, b)

	b = Status{HasTrial: true, IsPremiumTrial: true, DailyUsagesLeft: 2}.Badge()
	assert.Equal(t, 15, b.Total)
	assert.Equal(t, 13, b.Used)
	assert.Equal(t, LevelLow, b.Level)

	b = Status{HasTrial: true, DailyUsagesLeft: -1, DailyLimit: 8}.Badge()
	assert.Equal(t, 8, b.Total)
	assert.Equal(t, 8, b.Used)
	assert.Equal(t, LevelExhausted, b.Level)
}
