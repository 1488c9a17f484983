// internal/adapters/out/firestore/mintjob_repository_fs.go
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jobdom "promptmint/internal/domain/mintjob"
)

// MintJobRepositoryFS は mint ジョブジャーナル用の Firestore 実装です。
// internal/domain/mintjob/repository_port.go の
// mintjob.Repository インターフェースを満たします。
type MintJobRepositoryFS struct {
	client *firestore.Client
}

// コンパイル時チェック
var _ jobdom.Repository = (*MintJobRepositoryFS)(nil)

// NewMintJobRepositoryFS はリポジトリを生成します。
func NewMintJobRepositoryFS(client *firestore.Client) *MintJobRepositoryFS {
	return &MintJobRepositoryFS{client: client}
}

// Firestore 上のドキュメント構造
type mintJobDoc struct {
	ID                string    `firestore:"id"`
	Payer             string    `firestore:"payer"`
	Memo              string    `firestore:"memo"`
	Prompt            string    `firestore:"prompt"`
	Nonce             int64     `firestore:"nonce"`
	FeeLamports       int64     `firestore:"feeLamports"`
	State             string    `firestore:"state"`
	Reason            string    `firestore:"reason"`
	Error             string    `firestore:"error"`
	PaymentSignature  string    `firestore:"paymentSignature"`
	MintAddress       string    `firestore:"mintAddress"`
	MetadataURI       string    `firestore:"metadataUri"`
	ImageURI          string    `firestore:"imageUri"`
	TransferSignature string    `firestore:"transferSignature"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

func (r *MintJobRepositoryFS) collection() *firestore.CollectionRef {
	return r.client.Collection("mintJobs")
}

// Save は upsert します（パイプラインが状態遷移ごとに呼ぶため）。
func (r *MintJobRepositoryFS) Save(ctx context.Context, job jobdom.Job) error {
	id := strings.TrimSpace(job.ID)
	if id == "" {
		return jobdom.ErrNotFound
	}
	_, err := r.collection().Doc(id).Set(ctx, domainToDoc(job))
	return err
}

// GetByID は ID で 1 件取得します。
func (r *MintJobRepositoryFS) GetByID(ctx context.Context, id string) (jobdom.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return jobdom.Job{}, jobdom.ErrNotFound
	}

	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return jobdom.Job{}, jobdom.ErrNotFound
		}
		return jobdom.Job{}, err
	}

	var d mintJobDoc
	if err := doc.DataTo(&d); err != nil {
		return jobdom.Job{}, err
	}

	// docID を優先して ID に入れておく（フィールド側が空の場合の保険）
	if strings.TrimSpace(d.ID) == "" {
		d.ID = doc.Ref.ID
	}
	return docToDomain(d), nil
}

// ListByState は指定状態のジョブを新しい順に最大 limit 件返します。
// limit <= 0 のときは 50 件にクランプします。
func (r *MintJobRepositoryFS) ListByState(ctx context.Context, state jobdom.State, limit int) ([]jobdom.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	iter := r.collection().
		Where("state", "==", string(state)).
		OrderBy("updatedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var jobs []jobdom.Job
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var d mintJobDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		if strings.TrimSpace(d.ID) == "" {
			d.ID = snap.Ref.ID
		}
		jobs = append(jobs, docToDomain(d))
	}
	return jobs, nil
}

// ===============================
// Mapping helpers
// ===============================

func docToDomain(d mintJobDoc) jobdom.Job {
	return jobdom.Job{
		ID:                strings.TrimSpace(d.ID),
		Payer:             d.Payer,
		Memo:              d.Memo,
		Prompt:            d.Prompt,
		Nonce:             d.Nonce,
		FeeLamports:       uint64(d.FeeLamports),
		State:             jobdom.State(d.State),
		Reason:            d.Reason,
		Error:             d.Error,
		PaymentSignature:  d.PaymentSignature,
		MintAddress:       d.MintAddress,
		MetadataURI:       d.MetadataURI,
		ImageURI:          d.ImageURI,
		TransferSignature: d.TransferSignature,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func domainToDoc(j jobdom.Job) mintJobDoc {
	return mintJobDoc{
		ID:                strings.TrimSpace(j.ID),
		Payer:             j.Payer,
		Memo:              j.Memo,
		Prompt:            j.Prompt,
		Nonce:             j.Nonce,
		FeeLamports:       int64(j.FeeLamports),
		State:             string(j.State),
		Reason:            j.Reason,
		Error:             j.Error,
		PaymentSignature:  j.PaymentSignature,
		MintAddress:       j.MintAddress,
		MetadataURI:       j.MetadataURI,
		ImageURI:          j.ImageURI,
		TransferSignature: j.TransferSignature,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}
