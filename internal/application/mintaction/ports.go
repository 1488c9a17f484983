// internal/application/mintaction/ports.go
package mintaction

import (
	"context"

	jobdom "promptmint/internal/domain/mintjob"
	"promptmint/internal/domain/nft"
)

// ============================================================
// 判定・生成系ポート（OpenAI 実装が満たす）
// ============================================================

// SafetyGate はプロンプトの安全性判定を行うポートです。
// safe=false は「拒否すべき」、err は判定自体の失敗を表します。
type SafetyGate interface {
	Check(ctx context.Context, prompt string) (safe bool, err error)
}

// PromptEnhancer は支払い確認後にプロンプトを画像生成向けに書き直します。
type PromptEnhancer interface {
	Enhance(ctx context.Context, prompt string) (string, error)
}

// AttributeSynthesizer は拡張済みプロンプトから表示メタデータを合成します。
// 失敗時は空フィールドに劣化して返すこと（エラーでパイプラインを止めない）。
type AttributeSynthesizer interface {
	Synthesize(ctx context.Context, enhancedPrompt string, nonce int64, note string) (nft.Config, error)
}

// ImageProducer は画像を 1 枚生成してローカルパスを返します。
type ImageProducer interface {
	Produce(ctx context.Context, prompt string, nonce int64) (string, error)
}

// ============================================================
// ストレージ系ポート
// ============================================================

// AssetPublisher は画像と metadata を分散ストレージへ上げ、
// metadata URI を返します。
type AssetPublisher interface {
	Publish(ctx context.Context, imagePath string, cfg *nft.Config) (string, error)
}

// AssetArchiver は運用用の控えアーカイブです。未構成でも動作すること。
type AssetArchiver interface {
	Enabled() bool
	ArchiveFile(ctx context.Context, jobID, localPath, contentType string) error
	ArchiveJSON(ctx context.Context, jobID, name string, doc []byte) error
}

// ============================================================
// チェーン系ポート（Solana 実装が満たす）
// ============================================================

// ActionTxBuilder は支払い用の未署名トランザクションを組み立てます。
type ActionTxBuilder interface {
	QuoteFee(ctx context.Context) (uint64, error)
	Build(ctx context.Context, payer string, feeLamports uint64, memoText string) (string, error)
}

// PaymentWatcher はトレジャリー宛ての支払いを memo で待ち受けます。
// found=false は「時間内に観測できなかった」を表し、エラーではありません。
type PaymentWatcher interface {
	WaitForMemo(ctx context.Context, memo string) (signature string, found bool, err error)
}

// TokenMinter は 1 点物のトークンを発行し mint アドレスを返します。
type TokenMinter interface {
	Mint(ctx context.Context, metadataURI, name string) (string, error)
}

// TokenTransferor は発行済みトークンを買い手のウォレットへ送ります。
type TokenTransferor interface {
	Transfer(ctx context.Context, mintAddr, toWallet string) (string, error)
}

// ============================================================
// 運用系ポート
// ============================================================

// AlertMailer は手動介入が必要なジョブを運用者へ通知します。
type AlertMailer interface {
	SendStrandedAsset(ctx context.Context, job jobdom.Job) error
}
