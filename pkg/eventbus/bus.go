package eventbus

import (
	"context"
	"errors"
)

var (
	ErrPublishFailed = errors.New("publish failed after retries")
	ErrBusClosed     = errors.New("event bus closed")
)

// Handler 수신한 이벤트 페이로드 처리 함수
// 페이로드 파싱 실패는 핸들러가 로깅 후 버린다 (소비 루프는 계속 진행)
type Handler func(payload []byte)

// Bus 이벤트 버스 인터페이스
// Publish는 JSON 직렬화 후 발행, Subscribe는 ctx 취소까지 블로킹
type Bus interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler Handler) error
}
