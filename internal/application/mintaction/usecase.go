// internal/application/mintaction/usecase.go
package mintaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	jobdom "promptmint/internal/domain/mintjob"
)

var (
	ErrEmptyPrompt    = errors.New("mint_action: prompt is empty")
	ErrEmptyMemo      = errors.New("mint_action: memo is empty")
	ErrInvalidAccount = errors.New("mint_action: account is not a valid wallet address")
	ErrUnsafePrompt   = errors.New("mint_action: prompt rejected by safety check")
)

// Usecase は「支払いトランザクションの組み立て」と「支払い確認後の
// ミントパイプライン」の 2 段階を束ねるアプリケーションサービスです。
type Usecase struct {
	gate        SafetyGate
	enhancer    PromptEnhancer
	synthesizer AttributeSynthesizer
	imager      ImageProducer
	publisher   AssetPublisher
	archiver    AssetArchiver

	txBuilder  ActionTxBuilder
	watcher    PaymentWatcher
	minter     TokenMinter
	transferor TokenTransferor

	jobs   jobdom.Repository
	alerts AlertMailer
}

// Deps は Usecase の依存一式です。archiver / alerts は nil 可。
type Deps struct {
	Gate        SafetyGate
	Enhancer    PromptEnhancer
	Synthesizer AttributeSynthesizer
	Imager      ImageProducer
	Publisher   AssetPublisher
	Archiver    AssetArchiver

	TxBuilder  ActionTxBuilder
	Watcher    PaymentWatcher
	Minter     TokenMinter
	Transferor TokenTransferor

	Jobs   jobdom.Repository
	Alerts AlertMailer
}

func NewUsecase(d Deps) *Usecase {
	return &Usecase{
		gate:        d.Gate,
		enhancer:    d.Enhancer,
		synthesizer: d.Synthesizer,
		imager:      d.Imager,
		publisher:   d.Publisher,
		archiver:    d.Archiver,
		txBuilder:   d.TxBuilder,
		watcher:     d.Watcher,
		minter:      d.Minter,
		transferor:  d.Transferor,
		jobs:        d.Jobs,
		alerts:      d.Alerts,
	}
}

// BuildActionInput は POST /post_action の入力です。
type BuildActionInput struct {
	Account string // 買い手のウォレットアドレス（base58）
	Prompt  string
	Memo    string // ユーザー指定の支払い識別 memo
}

// BuildActionOutput は署名前トランザクションと付随情報です。
type BuildActionOutput struct {
	Transaction string // base64
	Message     string
	JobID       string
}

// BuildAction validates the request, builds the unsigned payment
// transaction and journals a new job in state transaction_built.
// The caller is expected to send the response and then start
// RunPipeline on a detached context.
func (u *Usecase) BuildAction(ctx context.Context, in BuildActionInput) (BuildActionOutput, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return BuildActionOutput{}, ErrEmptyPrompt
	}
	memo := strings.TrimSpace(in.Memo)
	if memo == "" {
		return BuildActionOutput{}, ErrEmptyMemo
	}
	account := strings.TrimSpace(in.Account)
	if !validWalletAddress(account) {
		return BuildActionOutput{}, ErrInvalidAccount
	}

	now := time.Now().UTC()
	job := jobdom.Job{
		ID:        uuid.NewString(),
		Payer:     account,
		Prompt:    prompt,
		State:     jobdom.StateReceivedPrompt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.saveJob(ctx, &job)

	safe, err := u.gate.Check(ctx, prompt)
	if err != nil {
		u.abortJob(ctx, &job, jobdom.ReasonPipelineError, err)
		return BuildActionOutput{}, fmt.Errorf("mint_action: safety check: %w", err)
	}
	if !safe {
		u.abortJob(ctx, &job, jobdom.ReasonPipelineError, ErrUnsafePrompt)
		return BuildActionOutput{}, ErrUnsafePrompt
	}
	u.advanceJob(ctx, &job, jobdom.StateSafetyChecked)

	// memo に数値ノンスを連結して、同文面の同時リクエストを区別する。
	// 同じノンスは画像ファイル名とアートワーク名にも使う。
	nonce := rand.Int63n(1_000_000_000)
	saltedMemo := memo + strconv.FormatInt(nonce, 10)

	fee, err := u.txBuilder.QuoteFee(ctx)
	if err != nil {
		u.abortJob(ctx, &job, jobdom.ReasonPipelineError, err)
		return BuildActionOutput{}, fmt.Errorf("mint_action: quote fee: %w", err)
	}

	tx, err := u.txBuilder.Build(ctx, account, fee, saltedMemo)
	if err != nil {
		u.abortJob(ctx, &job, jobdom.ReasonPipelineError, err)
		return BuildActionOutput{}, fmt.Errorf("mint_action: build transaction: %w", err)
	}

	job.Memo = saltedMemo
	job.Nonce = nonce
	job.FeeLamports = fee
	u.advanceJob(ctx, &job, jobdom.StateTransactionBuilt)

	log.Printf("[mint_action] transaction built job=%s payer=%s fee=%d nonce=%d",
		job.ID, maskShort(account), fee, nonce)

	return BuildActionOutput{
		Transaction: tx,
		Message: fmt.Sprintf("Pay %.9f SOL to mint an artwork from your prompt.",
			float64(fee)/1e9),
		JobID: job.ID,
	}, nil
}

// validWalletAddress は base58 デコードして 32 バイトかどうかを見ます。
func validWalletAddress(addr string) bool {
	if addr == "" {
		return false
	}
	raw, err := base58.Decode(addr)
	return err == nil && len(raw) == 32
}

// ===============================
// Journal helpers
// ===============================

func (u *Usecase) saveJob(ctx context.Context, job *jobdom.Job) {
	if u.jobs == nil {
		return
	}
	job.UpdatedAt = time.Now().UTC()
	if err := u.jobs.Save(ctx, *job); err != nil {
		// ジャーナルはパイプラインを止めない
		log.Printf("[mint_action] journal save failed job=%s state=%s err=%v", job.ID, job.State, err)
	}
}

func (u *Usecase) advanceJob(ctx context.Context, job *jobdom.Job, state jobdom.State) {
	job.State = state
	u.saveJob(ctx, job)
}

func (u *Usecase) abortJob(ctx context.Context, job *jobdom.Job, reason string, cause error) {
	job.State = jobdom.StateAborted
	job.Reason = reason
	if cause != nil {
		job.Error = cause.Error()
	}
	u.saveJob(ctx, job)
}

// maskShort はログ用にアドレス等を短縮します。
func maskShort(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}
