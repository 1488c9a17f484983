// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
)

// Config はアプリケーション全体の環境変数設定を保持します。
// すべて起動時に一度だけ読み込みます（ホットリロードなし）。
type Config struct {
	Port string

	// Solana
	SolanaRPCURL    string
	MintKeypairJSON string // solana-keygen の keypair JSON ([u8;64]) をそのまま入れる
	MintKeySecret   string // Secret Manager のバージョンフルパス（設定時はこちらを優先）
	TreasuryAddress string // 未設定なら mint authority の公開鍵を流用する
	BaseFeeLamports uint64 // ミント手数料のベース額。rent 分は都度上乗せされる
	NFTSymbol       string

	// OpenAI
	OpenAIAPIKey       string
	OpenAIChatModel    string
	OpenAIImageModel   string
	ModerationStrategy string // "moderation"（既定）または "chat"

	// Irys / Arweave uploader
	IrysBaseURL string
	IrysAPIKey  string

	// ローカル一時保存先
	UploadDir string

	// 任意: Firestore ジョブジャーナル
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// 任意: 生成物の GCS アーカイブ
	GCSBucket string

	// 任意: オペレーター通知
	SendGridAPIKey string
	AlertFrom      string
	AlertTo        string

	// アクション公開情報
	ActionIconURL     string
	ActionTitle       string
	ActionDescription string
	ActionLabel       string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	cfg := &Config{
		Port: getenvDefault("PORT", "8080"),

		SolanaRPCURL:    getenvDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		MintKeypairJSON: os.Getenv("SOLANA_MINT_KEYPAIR"),
		MintKeySecret:   os.Getenv("SOLANA_MINT_KEY_SECRET"),
		TreasuryAddress: os.Getenv("TREASURY_ADDRESS"),
		BaseFeeLamports: getenvUint64("MINT_FEE_LAMPORTS", 10_000_000), // 0.01 SOL
		NFTSymbol:       getenvDefault("NFT_SYMBOL", "PMNT"),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIChatModel:    getenvDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIImageModel:   getenvDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),
		ModerationStrategy: getenvDefault("MODERATION_STRATEGY", "moderation"),

		IrysBaseURL: os.Getenv("IRYS_BASE_URL"),
		IrysAPIKey:  os.Getenv("IRYS_SERVICE_API_KEY"),

		UploadDir: getenvDefault("UPLOAD_DIR", "uploads"),

		FirestoreProjectID:       os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),

		GCSBucket: os.Getenv("GCS_BUCKET"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		AlertFrom:      os.Getenv("ALERT_FROM"),
		AlertTo:        os.Getenv("ALERT_TO"),

		ActionIconURL:     getenvDefault("ACTION_ICON_URL", "https://promptmint.app/icon.png"),
		ActionTitle:       getenvDefault("ACTION_TITLE", "Prompt Mint"),
		ActionDescription: getenvDefault("ACTION_DESCRIPTION", "Pay once, mint a unique AI-generated artwork to your wallet."),
		ActionLabel:       getenvDefault("ACTION_LABEL", "Mint"),
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvUint64(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
