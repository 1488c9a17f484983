// internal/adapters/out/mail/operator_alert_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	jobdom "promptmint/internal/domain/mintjob"
)

// EmailClient は実際のメール送信クライアント（SMTP / SendGrid / SES など）を
// 抽象化した下位レベルのインターフェースです。
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// OperatorAlertMailer はパイプラインが運用者の介入を要する状態で止まった
// ときに通知メールを送る実装です。mint 済み・転送未了の資産の手動回収が
// 主な用途です。
type OperatorAlertMailer struct {
	client      EmailClient
	fromAddress string
	toAddress   string
}

// NewOperatorAlertMailer はコンストラクタです。
//
//   - client      : SendGrid などの EmailClient 実装
//   - fromAddress : 送信元メールアドレス
//   - toAddress   : 運用者の通知先アドレス
func NewOperatorAlertMailer(client EmailClient, fromAddress, toAddress string) *OperatorAlertMailer {
	return &OperatorAlertMailer{
		client:      client,
		fromAddress: fromAddress,
		toAddress:   strings.TrimSpace(toAddress),
	}
}

// SendStrandedAsset は「mint は成功したが買い手への転送が全リトライで
// 失敗した」ジョブを通知します。通知先が未構成なら何もしません。
func (m *OperatorAlertMailer) SendStrandedAsset(ctx context.Context, job jobdom.Job) error {
	if m == nil || m.client == nil || m.toAddress == "" {
		return nil
	}

	subject := fmt.Sprintf("[promptmint] stranded asset: job %s", job.ID)

	body := fmt.Sprintf(
		`A minted asset could not be delivered and needs manual recovery.

  Job ID      : %s
  State       : %s (%s)
  Payer       : %s
  Mint        : %s
  Metadata    : %s
  Payment sig : %s
  Last error  : %s

The token is held by the mint authority wallet. Transfer it to the payer
manually, or decide on a refund, then update the job record.

--
promptmint pipeline`,
		job.ID,
		job.State,
		job.Reason,
		job.Payer,
		job.MintAddress,
		job.MetadataURI,
		job.PaymentSignature,
		strings.TrimSpace(job.Error),
	)

	return m.client.Send(ctx, m.fromAddress, m.toAddress, subject, body)
}
