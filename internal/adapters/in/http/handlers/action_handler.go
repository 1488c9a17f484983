// internal/adapters/in/http/handlers/action_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"promptmint/internal/application/mintaction"
)

// ActionMetadata は GET /get_action が返す discovery ドキュメントの
// 表示情報です。値は環境変数から注入されます。
type ActionMetadata struct {
	IconURL     string
	Title       string
	Description string
	Label       string
}

// ActionHandler は Actions 互換の 2 エンドポイントを担当します。
//
//   - GET  /get_action  : discovery ドキュメント
//   - POST /post_action : 未署名の支払いトランザクションを返し、
//     支払い監視からミントまでのパイプラインを裏で開始する
type ActionHandler struct {
	uc   *mintaction.Usecase
	meta ActionMetadata
}

// NewActionHandler はHTTPハンドラを初期化します。
func NewActionHandler(uc *mintaction.Usecase, meta ActionMetadata) http.Handler {
	return &ActionHandler{uc: uc, meta: meta}
}

// ServeHTTP はHTTPルーティングの入口です。
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/get_action":
		h.getAction(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/post_action":
		h.postAction(w, r)
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found"})
	}
}

// GET /get_action
func (h *ActionHandler) getAction(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]any{
		"icon":        h.meta.IconURL,
		"title":       h.meta.Title,
		"description": h.meta.Description,
		"label":       h.meta.Label,
		"links": map[string]any{
			"actions": []map[string]any{
				{
					"label": h.meta.Label,
					"href":  "/post_action?user_prompt={prompt}&memo={memo}",
					"parameters": []map[string]string{
						{"name": "prompt", "label": "Describe the artwork to mint"},
						{"name": "memo", "label": "Payment memo (used to match your payment)"},
					},
				},
			},
		},
	}
	_ = json.NewEncoder(w).Encode(doc)
}

type postActionBody struct {
	Account string `json:"account"`
}

// POST /post_action?user_prompt=...&memo=...
//
// レスポンス送信後、切り離されたコンテキストでパイプラインを開始します。
// 以降の進行はジョブジャーナルとログでのみ観測できます。
func (h *ActionHandler) postAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var body postActionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid request body"})
		return
	}

	out, err := h.uc.BuildAction(ctx, mintaction.BuildActionInput{
		Account: strings.TrimSpace(body.Account),
		Prompt:  q.Get("user_prompt"),
		Memo:    q.Get("memo"),
	})
	if err != nil {
		writeActionErr(w, err)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"transaction": out.Transaction,
		"message":     out.Message,
	})

	// リクエストの context はレスポンス後にキャンセルされるため持ち込まない
	go h.uc.RunPipelineByID(context.Background(), out.JobID)
}

// エラーハンドリング
func writeActionErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, mintaction.ErrUnsafePrompt),
		errors.Is(err, mintaction.ErrInvalidAccount),
		errors.Is(err, mintaction.ErrEmptyPrompt),
		errors.Is(err, mintaction.ErrEmptyMemo):
		code = http.StatusBadRequest
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
