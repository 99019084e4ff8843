package matcher

import (
	"sync"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
)

// topicQueue 토픽별 매칭 대기열
// append/제거/페어링 스캔은 모두 mu를 잡은 상태에서만 수행
type topicQueue struct {
	mu       sync.Mutex
	requests []models.MatchRequest
}

// queueSet 토픽 -> 대기열 매핑 (엔진이 단독 소유)
// 대기열은 첫 요청 시 생성되며 비어 있어도 삭제하지 않는다
type queueSet struct {
	mu     sync.RWMutex
	queues map[string]*topicQueue
}

func newQueueSet() *queueSet {
	return &queueSet{
		queues: make(map[string]*topicQueue),
	}
}

// get 토픽 대기열 조회 (없으면 생성)
func (s *queueSet) get(topic string) *topicQueue {
	s.mu.RLock()
	q, exists := s.queues[topic]
	s.mu.RUnlock()

	if exists {
		return q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if q, exists := s.queues[topic]; exists {
		return q
	}

	q = &topicQueue{}
	s.queues[topic] = q
	return q
}

// topics 현재 존재하는 토픽 목록
func (s *queueSet) topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.queues))
	for topic := range s.queues {
		names = append(names, topic)
	}
	return names
}

// lengths 토픽별 대기열 길이 스냅샷 (디버그/상태 조회용)
func (s *queueSet) lengths() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.queues))
	for topic, q := range s.queues {
		q.mu.Lock()
		out[topic] = len(q.requests)
		q.mu.Unlock()
	}
	return out
}

// append 대기열 끝에 요청 추가, 추가 후 길이 반환
func (q *topicQueue) append(req models.MatchRequest) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.requests = append(q.requests, req)
	return len(q.requests)
}

// removeUser 해당 사용자의 요청을 전부 제거 (중복 엔트리 포함), 제거 개수 반환
func (q *topicQueue) removeUser(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.requests[:0]
	removed := 0
	for _, req := range q.requests {
		if req.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, req)
	}
	q.requests = kept
	return removed
}

// requeueFront 대기열 맨 앞에 요청들을 순서대로 되돌린다
// (발행 실패한 페어 복구용 — 다음 페어링 패스에서 재시도)
func (q *topicQueue) requeueFront(reqs ...models.MatchRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.requests = append(append([]models.MatchRequest{}, reqs...), q.requests...)
}

// pairScan 페어링 스캔 실행
// i 기준으로 j>i 중 사용자가 다르고 난이도가 호환되는 첫 요청을 찾아 페어로 제거.
// 제거는 높은 인덱스(j)부터 수행해 인덱스가 밀리지 않게 한다.
// 매칭된 i 자리는 다음 요청이 당겨져 들어오므로 같은 자리에서 스캔을 계속한다.
func (q *topicQueue) pairScan() [][2]models.MatchRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pairs [][2]models.MatchRequest
	reqs := q.requests

	i := 0
	for i < len(reqs) {
		matched := false
		for j := i + 1; j < len(reqs); j++ {
			if reqs[j].UserID == reqs[i].UserID {
				continue
			}
			if !reqs[i].Difficulty.Compatible(reqs[j].Difficulty) {
				continue
			}

			a, b := reqs[i], reqs[j]
			reqs = append(reqs[:j], reqs[j+1:]...)
			reqs = append(reqs[:i], reqs[i+1:]...)
			pairs = append(pairs, [2]models.MatchRequest{a, b})
			matched = true
			break
		}
		if !matched {
			i++
		}
	}

	q.requests = reqs
	return pairs
}
