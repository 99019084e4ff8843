package projection

import (
	"sync"
	"time"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
)

// Store 사용자별 매칭 상태 프로젝션
// 이벤트 소비와 클라이언트 호출(find-match, reset)로만 변경된다.
// 엔진의 대기열 내부는 절대 직접 조회하지 않는다.
type Store struct {
	mu        sync.RWMutex
	statuses  map[string]models.UserStatus
	waitSince map[string]time.Time
	topics    map[string]string // 취소 시 dequeue 이벤트에 넣을 토픽
	results   map[string]models.MatchResult
}

// NewStore 프로젝션 저장소 생성
func NewStore() *Store {
	return &Store{
		statuses:  make(map[string]models.UserStatus),
		waitSince: make(map[string]time.Time),
		topics:    make(map[string]string),
		results:   make(map[string]models.MatchResult),
	}
}

// Status 사용자 상태 조회 (미등록 사용자는 NotMatching)
func (s *Store) Status(userID string) models.UserStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status, exists := s.statuses[userID]; exists {
		return status
	}
	return models.StatusNotMatching
}

// SetMatching find-match 수락 처리: 상태 Matching, 대기 시작 시각과 토픽 기록
func (s *Store) SetMatching(userID, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[userID] = models.StatusMatching
	s.waitSince[userID] = time.Now()
	s.topics[userID] = topic
}

// WaitingSeconds 대기 경과 시간(초) 조회
func (s *Store) WaitingSeconds(userID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since, exists := s.waitSince[userID]
	if !exists {
		return 0, false
	}
	return int(time.Since(since).Seconds()), true
}

// RequestedTopic 마지막 find-match의 토픽 조회 (취소 이벤트 발행용)
func (s *Store) RequestedTopic(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topic, exists := s.topics[userID]
	return topic, exists
}

// Result 마지막 매칭 결과 조회
func (s *Store) Result(userID string) (models.MatchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.results[userID]
	return result, exists
}

// Reset 상태 무조건 NotMatching으로 초기화, 대기 기록 제거
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[userID] = models.StatusNotMatching
	delete(s.waitSince, userID)
	delete(s.topics, userID)
	delete(s.results, userID)
}

// ResetAll 모든 프로젝션 초기화 (관리용)
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses = make(map[string]models.UserStatus)
	s.waitSince = make(map[string]time.Time)
	s.topics = make(map[string]string)
	s.results = make(map[string]models.MatchResult)
}

// ApplyMatchFound 매칭 성공 이벤트 반영
// Matching -> Matched 전이만 수행. 이미 Matched면 no-op (멱등).
// 그 외 상태에서 온 이벤트는 무시하고 false 반환.
func (s *Store) ApplyMatchFound(userID string, result models.MatchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.statuses[userID] {
	case models.StatusMatching:
		s.statuses[userID] = models.StatusMatched
		s.results[userID] = result
		delete(s.waitSince, userID)
		delete(s.topics, userID)
		return true
	case models.StatusMatched:
		// 중복 전달 (at-least-once) — 멱등 처리
		return true
	}
	return false
}

// ApplyDequeue 매칭 취소 이벤트 반영
// Matching -> Unsuccessful 전이만 수행, 그 외는 무시
func (s *Store) ApplyDequeue(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statuses[userID] != models.StatusMatching {
		return false
	}

	s.statuses[userID] = models.StatusUnsuccessful
	delete(s.waitSince, userID)
	delete(s.topics, userID)
	return true
}
