// internal/adapters/in/http/middleware/cors.go
package middleware

import "net/http"

// CORS はウォレット・Blink クライアント向けのヘッダを付けます。
// Actions 互換エンドポイントは任意オリジンからの呼び出しを前提とするため
// "*" 固定です（認証ヘッダは使わない）。
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Accept-Encoding")
		w.Header().Set("Access-Control-Max-Age", "600")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
