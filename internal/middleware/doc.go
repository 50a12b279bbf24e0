// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 認證由外部服務負責，這裡只從請求攜帶的 token 解出帳號識別，
// 供顯示和審計使用。
package middleware
