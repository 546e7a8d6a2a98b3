// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前只有 JWT 身份驗證：除了標準的 Bearer 標頭之外，
// 也接受 query string 中的 token，因為瀏覽器的 WebSocket API
// 無法自訂請求標頭。
package middleware
