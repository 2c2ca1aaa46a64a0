package token

import "short_clip_service/pkg/config"

// 這些變數會在測試時被覆蓋，讓 usecase 測試不依賴真實簽章
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)

// GenerateJWTWrapper 讓 `memberUseCase` test mock使用這個包裝函數
func GenerateJWTWrapper(memberID, role string) (string, error) {
	return GenerateJWTFunc(memberID, role, config.EnvConfig.ClipService)
}

// ParseJWTWrapper 讓 `memberUseCase` test mock使用這個包裝函數
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
