package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwtutil "github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/jwt"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity 인증 서비스가 반환하는 사용자 정보
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Verifier Bearer 토큰 검증 인터페이스
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// RemoteVerifier user-service의 verify-token 엔드포인트로 토큰 검증
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
}

// NewRemoteVerifier 원격 검증기 생성
func NewRemoteVerifier(baseURL string) *RemoteVerifier {
	return &RemoteVerifier{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// verifyTokenResponse user-service 응답 형식
type verifyTokenResponse struct {
	Message string   `json:"message"`
	Data    Identity `json:"data"`
}

// Verify user-service 호출로 토큰 검증
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/verify-token", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthorized
	}

	var body verifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	if body.Message != "Token verified" || body.Data.ID == "" {
		return nil, ErrUnauthorized
	}

	return &body.Data, nil
}

// LocalVerifier 로컬 JWT 검증 (user-service 없이 기동할 때)
type LocalVerifier struct {
	manager *jwtutil.JWTManager
}

// NewLocalVerifier 로컬 검증기 생성
func NewLocalVerifier(secret string, expiration time.Duration) *LocalVerifier {
	return &LocalVerifier{
		manager: jwtutil.NewJWTManager(secret, expiration),
	}
}

// Verify JWT 직접 검증
func (v *LocalVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := v.manager.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return &Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}
