// internal/platform/di/container.go
package di

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	httpin "promptmint/internal/adapters/in/http"
	"promptmint/internal/adapters/in/http/handlers"
	fs "promptmint/internal/adapters/out/firestore"
	gcso "promptmint/internal/adapters/out/gcs"
	mailadp "promptmint/internal/adapters/out/mail"
	"promptmint/internal/adapters/out/memory"
	"promptmint/internal/application/mintaction"
	jobdom "promptmint/internal/domain/mintjob"
	appcfg "promptmint/internal/infra/config"
	irysinfra "promptmint/internal/infra/irys"
	openaiinfra "promptmint/internal/infra/openai"
	solanainfra "promptmint/internal/infra/solana"
)

// Container は main.go から使う依存オブジェクトの束。
// これを返したい目的は：main.go を極限まで薄くすること。
type Container struct {
	Config *appcfg.Config

	Firestore *firestore.Client
	GCS       *storage.Client

	Jobs jobdom.Repository

	MintActionUC *mintaction.Usecase
}

// Close は Cloud Run 終了時などに呼んで安全にリソースを閉じる。
func (c *Container) Close() {
	if c.Firestore != nil {
		_ = c.Firestore.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
}

// RouterDeps はインバウンド HTTP 層へ渡す依存を組み立てます。
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		MintActionUC: c.MintActionUC,
		ActionMeta: handlers.ActionMetadata{
			IconURL:     c.Config.ActionIconURL,
			Title:       c.Config.ActionTitle,
			Description: c.Config.ActionDescription,
			Label:       c.Config.ActionLabel,
		},
	}
}

// NewContainer は設定を読み、外部クライアントとユースケースを全部つなぎます。
// 任意の依存（Firestore / GCS / SendGrid）は未構成でも起動できます。
func NewContainer(ctx context.Context) (*Container, error) {
	// 1. Load config
	cfg := appcfg.Load()

	// 2. Solana: ミント権限鍵とチェーンクライアント
	authority, err := solanainfra.LoadMintAuthority(ctx, cfg.MintKeypairJSON, cfg.MintKeySecret)
	if err != nil {
		return nil, err
	}
	treasury := cfg.TreasuryAddress
	if treasury == "" {
		treasury = authority.Address()
		log.Printf("[container] TREASURY_ADDRESS empty, using mint authority %s", treasury)
	}

	txBuilder := solanainfra.NewTreasuryTxBuilder(cfg.SolanaRPCURL, treasury, cfg.BaseFeeLamports)
	rawRPC := solanainfra.NewJSONRPCClient(cfg.SolanaRPCURL)
	watcher := solanainfra.NewPaymentWatcher(rawRPC, treasury)
	minter := solanainfra.NewNFTMinter(txBuilder.RPC, rawRPC, authority.Account, cfg.NFTSymbol)
	transferor := solanainfra.NewTokenTransferor(txBuilder.RPC, rawRPC, authority.Account)
	log.Printf("[container] Solana wired rpc=%s treasury=%s", cfg.SolanaRPCURL, treasury)

	// 3. OpenAI
	api := goopenai.NewClient(cfg.OpenAIAPIKey)
	strategy := openaiinfra.StrategyModeration
	if cfg.ModerationStrategy == "chat" {
		strategy = openaiinfra.StrategyChat
	}
	gate := openaiinfra.NewSafetyGate(api, cfg.OpenAIChatModel, strategy)
	enhancer := openaiinfra.NewPromptEnhancer(api, cfg.OpenAIChatModel)
	synthesizer := openaiinfra.NewAttributeSynthesizer(api, cfg.OpenAIChatModel, cfg.NFTSymbol, cfg.UploadDir)
	imager := openaiinfra.NewImageProducer(api, cfg.OpenAIImageModel, cfg.UploadDir)

	// 4. Irys uploader
	publisher := irysinfra.NewAssetPublisher(
		irysinfra.NewHTTPUploader(cfg.IrysBaseURL, cfg.IrysAPIKey),
	)

	// 5. ジョブジャーナル: Firestore が構成済みならそちら、無ければメモリ
	var (
		fsClient *firestore.Client
		jobs     jobdom.Repository
	)
	if cfg.FirestoreProjectID != "" {
		var opts []option.ClientOption
		if cfg.FirestoreCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
		}
		fsClient, err = firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
		if err != nil {
			return nil, err
		}
		jobs = fs.NewMintJobRepositoryFS(fsClient)
		log.Printf("[container] Firestore journal connected project=%s", cfg.FirestoreProjectID)
	} else {
		jobs = memory.NewMintJobRepository()
		log.Printf("[container] Firestore not configured, using in-memory journal")
	}

	// 6. 任意: GCS アーカイブ
	var (
		gcsClient *storage.Client
		archiver  *gcso.AssetArchiverGCS
	)
	if cfg.GCSBucket != "" {
		gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			log.Printf("[container] WARN: gcs init failed, archive disabled: %v", err)
		} else {
			archiver = gcso.NewAssetArchiverGCS(gcsClient, cfg.GCSBucket)
			log.Printf("[container] GCS archive enabled bucket=%s", cfg.GCSBucket)
		}
	}

	// 7. 任意: オペレーター通知
	var alerts mintaction.AlertMailer
	if cfg.SendGridAPIKey != "" && cfg.AlertTo != "" {
		alerts = mailadp.NewOperatorAlertMailer(
			mailadp.NewSendGridClient(cfg.SendGridAPIKey),
			cfg.AlertFrom,
			cfg.AlertTo,
		)
		log.Printf("[container] operator alerts enabled to=%s", cfg.AlertTo)
	}

	uc := mintaction.NewUsecase(mintaction.Deps{
		Gate:        gate,
		Enhancer:    enhancer,
		Synthesizer: synthesizer,
		Imager:      imager,
		Publisher:   publisher,
		Archiver:    archiver,
		TxBuilder:   txBuilder,
		Watcher:     watcher,
		Minter:      minter,
		Transferor:  transferor,
		Jobs:        jobs,
		Alerts:      alerts,
	})

	return &Container{
		Config:       cfg,
		Firestore:    fsClient,
		GCS:          gcsClient,
		Jobs:         jobs,
		MintActionUC: uc,
	}, nil
}
