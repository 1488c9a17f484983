// internal/domain/mintjob/repository_port.go
package mintjob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("mintjob: not found")

// Repository はジョブジャーナルの永続化ポートです。
// Firestore 実装（本番）とインメモリ実装（テスト / 未設定時）があります。
type Repository interface {
	Save(ctx context.Context, job Job) error
	GetByID(ctx context.Context, id string) (Job, error)
	ListByState(ctx context.Context, state State, limit int) ([]Job, error)
}
