package talent

import (
	"time"

	"github.com/google/uuid"
)

// Reward state of a member
type RewardState struct {
	TalentScore           int64      `bson:"talentScore" json:"talentScore"`
	LastPostRewardDate    *time.Time `bson:"lastPostDate" json:"lastPostDate,omitempty"`
	LastCheckinRewardDate *time.Time `bson:"lastQRDate" json:"lastQRDate,omitempty"`
}

// Equal compares the score and both reward days.
func (s RewardState) Equal(o RewardState) bool {
	return s.TalentScore == o.TalentScore &&
		sameInstant(s.LastPostRewardDate, o.LastPostRewardDate) &&
		sameInstant(s.LastCheckinRewardDate, o.LastCheckinRewardDate)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Member
type User struct {
	UID         string    `bson:"uid" json:"uid"`
	Email       string    `bson:"email" json:"email"`
	Name        string    `bson:"name" json:"name"`
	Cell        string    `bson:"cell" json:"cell,omitempty"`
	Phone       string    `bson:"phone" json:"phone,omitempty"`
	Role        string    `bson:"role" json:"role"`
	Disabled    bool      `bson:"disabled" json:"disabled"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	RewardState `bson:",inline"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Reason string

const (
	ReasonDailyPost Reason = "daily_post"
	ReasonQRCheckin Reason = "qr_checkin"
)

// Reward history entry (users/{uid}/scoreHistory)
type HistoryEntry struct {
	ID        uuid.UUID `bson:"id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Amount    int64     `bson:"score" json:"score"`
	Reason    Reason    `bson:"reason" json:"reason"`
	Label     string    `bson:"missionContent" json:"missionContent"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Rejection string

const (
	RejectNone                Rejection = ""
	RejectWrongDay            Rejection = "wrong_day"
	RejectOutsideWindow       Rejection = "outside_window"
	RejectAlreadyClaimedToday Rejection = "already_claimed_today"
)

// Result of a rule evaluation. State is the state to commit when Granted.
type Decision struct {
	Granted   bool
	Amount    int64
	Rejection Rejection
	State     RewardState
}

// Outcome of a reward request as seen by callers
type Outcome struct {
	Reason      Reason    `json:"reason"`
	Granted     bool      `json:"granted"`
	Amount      int64     `json:"amount"`
	Rejection   Rejection `json:"rejection,omitempty"`
	TalentScore int64     `json:"talentScore"`
}

// Inclusive range of seconds since local midnight
type TimeWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (w TimeWindow) Contains(second int) bool {
	return second >= w.Start && second <= w.End
}

// QR check-in policy. Nil gates are disabled.
type CheckinPolicy struct {
	RestrictToWeekday *time.Weekday
	Window            *TimeWindow
	BonusAmount       int64
	Label             string
}

type MissionType string

const (
	MissionGratitude    MissionType = "감사나눔"
	MissionIntercession MissionType = "중보기도"
)

func (m MissionType) Valid() bool {
	return m == MissionGratitude || m == MissionIntercession
}

// Mission post
type Post struct {
	ID          uuid.UUID   `bson:"id" json:"id"`
	UserID      string      `bson:"userId" json:"userId"`
	MissionType MissionType `bson:"missionType" json:"missionType"`
	Content     string      `bson:"content" json:"content"`
	IsPublic    bool        `bson:"isPublic" json:"isPublic"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
}

type PostFilter struct {
	UserID     string
	PublicOnly bool
}

// Post in the public feed
type FeedPost struct {
	Post
	AuthorName string `json:"authorName"`
	AuthorCell string `json:"authorCell"`
}

type ScoreEntry struct {
	UserID      string `json:"uid"`
	Name        string `json:"name,omitempty"`
	TalentScore int64  `json:"talentScore"`
}

// Published when a reward is granted
type RewardGranted struct {
	UserID      string    `json:"userId"`
	Reason      Reason    `json:"reason"`
	Amount      int64     `json:"amount"`
	TalentScore int64     `json:"talentScore"`
	GrantedAt   time.Time `json:"grantedAt"`
}

// Mission post submitted through the post queue
type PostMessage struct {
	UserID      string      `json:"userId"`
	MissionType MissionType `json:"missionType"`
	Content     string      `json:"content"`
	IsPublic    bool        `json:"isPublic"`
}

// QR scan forwarded by a kiosk
type CheckinMessage struct {
	CheckinID string `json:"checkinId"`
	UserID    string `json:"userId"`
	Code      string `json:"code"`
}

type CheckinResult struct {
	CheckinID string    `json:"checkinId"`
	Success   bool      `json:"success"`
	Granted   bool      `json:"granted"`
	Amount    int64     `json:"amount"`
	Rejection Rejection `json:"rejection,omitempty"`
	Error     string    `json:"error,omitempty"`
}
