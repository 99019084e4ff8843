package models

import (
	"errors"
	"time"
)

// 이벤트 채널 이름
const (
	ChannelMatchEvents      = "match-events"
	ChannelDequeueEvents    = "dequeue-events"
	ChannelMatchFoundEvents = "match-found-events"
)

var (
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidTopic      = errors.New("invalid topic")
	ErrInvalidUserID     = errors.New("invalid user id")
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid 난이도 값 확인
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// rank 난이도 순서 (Easy < Medium < Hard)
func (d Difficulty) rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	}
	return -1
}

// Compatible 두 난이도가 매칭 가능한지 확인
// Easy-Hard 조합만 불가, 인접 난이도 및 동일 난이도는 허용
func (d Difficulty) Compatible(other Difficulty) bool {
	a, b := d.rank(), other.rank()
	if a < 0 || b < 0 {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

type UserStatus string

const (
	StatusNotMatching  UserStatus = "NotMatching"
	StatusMatching     UserStatus = "Matching"
	StatusMatched      UserStatus = "Matched"
	StatusUnsuccessful UserStatus = "Unsuccessful"
)

// MatchRequest 한 사용자의 매칭 요청 (match-events 페이로드)
type MatchRequest struct {
	UserID     string     `json:"userID"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}

// Validate 필수 필드 확인
func (r *MatchRequest) Validate() error {
	if r.UserID == "" {
		return ErrInvalidUserID
	}
	if r.Topic == "" {
		return ErrInvalidTopic
	}
	if !r.Difficulty.Valid() {
		return ErrInvalidDifficulty
	}
	return nil
}

// DequeueEvent 매칭 취소 이벤트 (dequeue-events 페이로드)
type DequeueEvent struct {
	UserID string `json:"userID"`
	Topic  string `json:"topic"`
}

// Validate 필수 필드 확인
func (e *DequeueEvent) Validate() error {
	if e.UserID == "" {
		return ErrInvalidUserID
	}
	if e.Topic == "" {
		return ErrInvalidTopic
	}
	return nil
}

// MatchResult 확정된 페어링 결과 (match-found-events 페이로드)
// Difficulty는 userA 기준 난이도
type MatchResult struct {
	ID              string     `json:"id"`
	UserA           string     `json:"userA"`
	UserADifficulty Difficulty `json:"userADifficulty"`
	UserB           string     `json:"userB"`
	UserBDifficulty Difficulty `json:"userBDifficulty"`
	Topic           string     `json:"topic"`
	Difficulty      Difficulty `json:"difficulty"`
	MatchedAt       time.Time  `json:"matchedAt"`
}

// Names 결과에 포함된 사용자인지 확인
func (m *MatchResult) Names(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}
