// cmd/jobs/main.go
//
// ジョブジャーナルの運用向け一覧コマンド。
// 手動回収が必要な aborted ジョブの洗い出しに使います。
//
//	FIRESTORE_PROJECT_ID=... go run ./cmd/jobs -state aborted -limit 20
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	fs "promptmint/internal/adapters/out/firestore"
	jobdom "promptmint/internal/domain/mintjob"
	"promptmint/internal/infra/config"
)

func main() {
	state := flag.String("state", string(jobdom.StateAborted), "job state to list")
	limit := flag.Int("limit", 20, "max jobs to print")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()
	cfg := config.Load()

	if cfg.FirestoreProjectID == "" {
		log.Fatal("[jobs] FIRESTORE_PROJECT_ID is required")
	}

	var opts []option.ClientOption
	if cfg.FirestoreCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
	if err != nil {
		log.Fatalf("[jobs] firestore init: %v", err)
	}
	defer client.Close()

	repo := fs.NewMintJobRepositoryFS(client)
	jobs, err := repo.ListByState(ctx, jobdom.State(*state), *limit)
	if err != nil {
		log.Fatalf("[jobs] list: %v", err)
	}

	if len(jobs) == 0 {
		fmt.Printf("no jobs in state %q\n", *state)
		return
	}

	for _, j := range jobs {
		fmt.Printf("%s  state=%s reason=%s payer=%s mint=%s updated=%s\n",
			j.ID, j.State, j.Reason, j.Payer, j.MintAddress, j.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
		if j.Error != "" {
			fmt.Printf("    error: %s\n", j.Error)
		}
	}
}
