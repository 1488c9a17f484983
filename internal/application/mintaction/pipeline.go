// internal/application/mintaction/pipeline.go
package mintaction

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	jobdom "promptmint/internal/domain/mintjob"
	"promptmint/internal/domain/nft"
)

// RunPipeline は支払いの観測からトークン転送までを順に実行します。
// HTTP レスポンス送信後に切り離されたコンテキストで呼ばれる想定で、
// 結果はジョブジャーナルとログにのみ残ります。
func (u *Usecase) RunPipeline(ctx context.Context, job jobdom.Job) {
	start := time.Now()
	u.advanceJob(ctx, &job, jobdom.StateResponseSent)

	log.Printf("[pipeline] start job=%s payer=%s memo=%q", job.ID, maskShort(job.Payer), job.Memo)

	// 1) 支払い観測。時間切れはエラーではなく静かな中断。
	sig, found, err := u.watcher.WaitForMemo(ctx, job.Memo)
	if err != nil {
		u.failPipeline(ctx, &job, fmt.Errorf("watch payment: %w", err))
		return
	}
	if !found {
		job.Reason = jobdom.ReasonPaymentTimeout
		job.State = jobdom.StateAborted
		u.saveJob(ctx, &job)
		log.Printf("[pipeline] payment not observed job=%s memo=%q elapsed=%s", job.ID, job.Memo, time.Since(start))
		return
	}
	job.PaymentSignature = sig
	u.advanceJob(ctx, &job, jobdom.StatePaymentConfirmed)
	log.Printf("[pipeline] payment confirmed job=%s sig=%s", job.ID, maskShort(sig))

	// 2) プロンプト拡張（失敗は致命的）
	enhanced, err := u.enhancer.Enhance(ctx, job.Prompt)
	if err != nil {
		u.failPipeline(ctx, &job, fmt.Errorf("enhance prompt: %w", err))
		return
	}
	u.advanceJob(ctx, &job, jobdom.StatePromptEnhanced)

	// 3) 属性合成（実装側で劣化フォールバック済み）
	cfg, err := u.synthesizer.Synthesize(ctx, enhanced, job.Nonce, job.Memo)
	if err != nil {
		u.failPipeline(ctx, &job, fmt.Errorf("synthesize attributes: %w", err))
		return
	}
	u.advanceJob(ctx, &job, jobdom.StateAttributesSynthesized)

	// 4) 画像生成
	imagePath, err := u.imager.Produce(ctx, enhanced, job.Nonce)
	if err != nil {
		u.failPipeline(ctx, &job, fmt.Errorf("produce image: %w", err))
		return
	}
	u.advanceJob(ctx, &job, jobdom.StateImageProduced)

	// 5) 分散ストレージへ公開
	metadataURI, err := u.publisher.Publish(ctx, imagePath, &cfg)
	if err != nil {
		u.failPipeline(ctx, &job, fmt.Errorf("publish asset: %w", err))
		return
	}
	job.MetadataURI = metadataURI
	job.ImageURI = cfg.Metadata.Image
	u.advanceJob(ctx, &job, jobdom.StateAssetPublished)

	// 6) 控えアーカイブとローカル掃除（どちらも best-effort）
	u.archiveAndCleanup(ctx, job, imagePath, &cfg)

	// 7) ミント
	mintAddr, err := u.minter.Mint(ctx, metadataURI, cfg.Metadata.Name)
	if err != nil {
		u.failPipeline(ctx, &job, fmt.Errorf("mint token: %w", err))
		return
	}
	job.MintAddress = mintAddr
	u.advanceJob(ctx, &job, jobdom.StateMinted)
	log.Printf("[pipeline] minted job=%s mint=%s", job.ID, maskShort(mintAddr))

	// 8) 転送。全リトライ失敗時は資産が発行者側に残るため、運用者へ通知する。
	transferSig, err := u.transferor.Transfer(ctx, mintAddr, job.Payer)
	if err != nil {
		job.Error = err.Error()
		job.Reason = jobdom.ReasonTransferFailed
		job.State = jobdom.StateAborted
		u.saveJob(ctx, &job)
		log.Printf("[pipeline] transfer failed job=%s mint=%s err=%v", job.ID, maskShort(mintAddr), err)
		u.alertStranded(ctx, job)
		return
	}
	job.TransferSignature = transferSig
	u.advanceJob(ctx, &job, jobdom.StateTransferred)

	u.advanceJob(ctx, &job, jobdom.StateDone)
	log.Printf("[pipeline] done job=%s mint=%s transfer=%s elapsed=%s",
		job.ID, maskShort(mintAddr), maskShort(transferSig), time.Since(start))
}

// RunPipelineByID はジャーナルからジョブを引いて RunPipeline を実行します。
// レスポンス送信後の goroutine から呼ぶための入口です。
func (u *Usecase) RunPipelineByID(ctx context.Context, jobID string) {
	if u.jobs == nil {
		log.Printf("[pipeline] no journal configured, cannot load job=%s", jobID)
		return
	}
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		log.Printf("[pipeline] load job=%s failed: %v", jobID, err)
		return
	}
	u.RunPipeline(ctx, job)
}

func (u *Usecase) failPipeline(ctx context.Context, job *jobdom.Job, cause error) {
	u.abortJob(ctx, job, jobdom.ReasonPipelineError, cause)
	log.Printf("[pipeline] aborted job=%s state=%s err=%v", job.ID, job.State, cause)
}

// archiveAndCleanup は画像と metadata の控えを GCS に残し、ローカルの
// 画像ファイルを消します。失敗してもパイプラインは続行します。
func (u *Usecase) archiveAndCleanup(ctx context.Context, job jobdom.Job, imagePath string, cfg *nft.Config) {
	if u.archiver != nil && u.archiver.Enabled() {
		if err := u.archiver.ArchiveFile(ctx, job.ID, imagePath, "image/png"); err != nil {
			log.Printf("[pipeline] archive image failed job=%s err=%v", job.ID, err)
		}
		if doc, err := cfg.MarshalMetadata(); err == nil {
			if err := u.archiver.ArchiveJSON(ctx, job.ID, "metadata.json", doc); err != nil {
				log.Printf("[pipeline] archive metadata failed job=%s err=%v", job.ID, err)
			}
		}
	}

	if err := os.Remove(imagePath); err != nil {
		log.Printf("[pipeline] cleanup %s failed: %v", imagePath, err)
	}
}

func (u *Usecase) alertStranded(ctx context.Context, job jobdom.Job) {
	if u.alerts == nil {
		return
	}
	if err := u.alerts.SendStrandedAsset(ctx, job); err != nil {
		log.Printf("[pipeline] stranded-asset alert failed job=%s err=%v", job.ID, err)
	}
}
