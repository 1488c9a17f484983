package httpin

import (
	"net/http"

	"promptmint/internal/adapters/in/http/handlers"
	"promptmint/internal/application/mintaction"
)

// RouterDeps collects the usecases (and display metadata) injected from main.go.
type RouterDeps struct {
	MintActionUC *mintaction.Usecase
	ActionMeta   handlers.ActionMetadata
}

// NewRouter sets up HTTP routing.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Usecase が存在するものだけマウントする
	if deps.MintActionUC != nil {
		h := handlers.NewActionHandler(deps.MintActionUC, deps.ActionMeta)
		mux.Handle("/get_action", h)
		mux.Handle("/post_action", h)
	}

	return mux
}
