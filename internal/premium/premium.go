// Package premium interprets the trial/billing status returned by the API.
// It only gates UI affordances; the remote service enforces limits.
package premium

const (
	freeTrialDailyLimit    = 5
	premiumTrialDailyLimit = 15
	lowUsageThreshold      = 2
)

// Status mirrors GET /api/trial-status.
type Status struct {
	HasTrial        bool `json:"hasTrial"`
	IsFreeTrial     bool `json:"isFreeTrial,omitempty"`
	IsPremiumTrial  bool `json:"isPremiumTrial,omitempty"`
	IsPremium       bool `json:"isPremium,omitempty"`
	Unlimited       bool `json:"unlimited,omitempty"`
	DailyUsagesLeft int  `json:"dailyUsagesLeft"`
	DailyLimit      int  `json:"dailyLimit,omitempty"`
}

// CheckUsage reports whether an AI feature may be offered right now.
func (s Status) CheckUsage() bool {
	if s.Unlimited || s.IsPremium {
		return true
	}
	return s.HasTrial && s.DailyUsagesLeft > 0
}

// Limit is the daily allowance used for display.
func (s Status) Limit() int {
	if s.DailyLimit > 0 {
		return s.DailyLimit
	}
	if s.IsPremiumTrial {
		return premiumTrialDailyLimit
	}
	return freeTrialDailyLimit
}

// BadgeKind selects how the header badge renders.
type BadgeKind string

const (
	BadgeNone      BadgeKind = "none"
	BadgeUnlimited BadgeKind = "unlimited"
	BadgeTrial     BadgeKind = "trial"
)

// Level is the usage colour band.
type Level string

const (
	LevelOK        Level = "ok"
	LevelLow       Level = "low"
	LevelExhausted Level = "exhausted"
)

// Badge summarises the status for the header.
type Badge struct {
	Kind  BadgeKind
	Used  int
	Total int
	Left  int
	Level Level
}

// Badge computes the header badge.
func (s Status) Badge() Badge {
	if s.Unlimited || s.IsPremium {
		return Badge{Kind: BadgeUnlimited, Level: LevelOK}
	}
	if !s.HasTrial {
		return Badge{Kind: BadgeNone}
	}

	total := s.Limit()
	left := s.DailyUsagesLeft
	if left < 0 {
		left = 0
	}
	used := total - left
	if used < 0 {
		used = 0
	}

	level := LevelOK
	switch {
	case left <= 0:
		level = LevelExhausted
	case left <= lowUsageThreshold:
		level = LevelLow
	}
	return Badge{Kind: BadgeTrial, Used: used, Total: total, Left: left, Level: level}
}
