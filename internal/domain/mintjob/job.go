// internal/domain/mintjob/job.go
package mintjob

import "time"

// State は切り離されたミントパイプラインの進行状態です。
// HTTP レスポンスは StateResponseSent の時点で既に返っているため、
// それ以降の遷移はこのジャーナルとログでのみ観測できます。
type State string

const (
	StateReceivedPrompt        State = "received_prompt"
	StateSafetyChecked         State = "safety_checked"
	StateTransactionBuilt      State = "transaction_built"
	StateResponseSent          State = "response_sent"
	StatePaymentConfirmed      State = "payment_confirmed"
	StatePromptEnhanced        State = "prompt_enhanced"
	StateAttributesSynthesized State = "attributes_synthesized"
	StateImageProduced         State = "image_produced"
	StateAssetPublished        State = "asset_published"
	StateMinted                State = "minted"
	StateTransferred           State = "transferred"
	StateDone                  State = "done"
	StateAborted               State = "aborted"
)

// 中断理由。State が StateAborted のときだけ意味を持ちます。
const (
	ReasonPaymentTimeout = "payment_timeout"
	ReasonTransferFailed = "transfer_failed"
	ReasonPipelineError  = "pipeline_error"
)

// Job は 1 リクエスト分のミントパイプライン実行記録です。
type Job struct {
	ID          string
	Payer       string
	Memo        string // ソルト込み（ユーザー指定 memo + 数値ノンス）
	Prompt      string
	Nonce       int64
	FeeLamports uint64

	State  State
	Reason string // StateAborted の場合の理由
	Error  string // 直近の失敗メッセージ（あれば）

	PaymentSignature  string
	MintAddress       string
	MetadataURI       string
	ImageURI          string
	TransferSignature string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal はジョブが終端状態かどうかを返します。
func (j Job) Terminal() bool {
	return j.State == StateDone || j.State == StateAborted
}
