// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers），包括聊天室的 REST 介面、
// WebSocket 事件通道和附件上傳。它負責請求驗證與轉交服務層，
// 本身不包含業務邏輯。
package api
