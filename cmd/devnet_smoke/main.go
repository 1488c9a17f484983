// cmd/devnet_smoke/main.go
//
// devnet に対して未署名の支払いトランザクションを 1 本組み立てて標準出力に
// 出す手動確認用のコマンド。鍵やチェーンの状態は変更しません。
//
//	SOLANA_MINT_KEYPAIR=... go run ./cmd/devnet_smoke -payer <wallet> -memo hello
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"promptmint/internal/infra/config"
	solanainfra "promptmint/internal/infra/solana"
)

func main() {
	payer := flag.String("payer", "", "payer wallet address (base58)")
	memo := flag.String("memo", "smoke-test", "memo text to embed")
	flag.Parse()

	if *payer == "" {
		log.Fatal("[devnet-smoke] -payer is required")
	}

	_ = godotenv.Load()
	ctx := context.Background()
	cfg := config.Load()

	authority, err := solanainfra.LoadMintAuthority(ctx, cfg.MintKeypairJSON, cfg.MintKeySecret)
	if err != nil {
		log.Fatalf("[devnet-smoke] load mint authority: %v", err)
	}

	treasury := cfg.TreasuryAddress
	if treasury == "" {
		treasury = authority.Address()
	}

	builder := solanainfra.NewTreasuryTxBuilder(cfg.SolanaRPCURL, treasury, cfg.BaseFeeLamports)

	fee, err := builder.QuoteFee(ctx)
	if err != nil {
		log.Fatalf("[devnet-smoke] quote fee: %v", err)
	}
	log.Printf("[devnet-smoke] fee=%d lamports treasury=%s", fee, treasury)

	tx, err := builder.Build(ctx, *payer, fee, *memo)
	if err != nil {
		log.Fatalf("[devnet-smoke] build tx: %v", err)
	}

	log.Printf("[devnet-smoke] unsigned transaction (base64):\n%s", tx)
}
