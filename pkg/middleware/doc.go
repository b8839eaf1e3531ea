// Package middleware はダッシュボードのGinルーターに挟む処理をまとめる。
//
// 適用順は Recovery, Logger, CORS, LoadSession とし、ページのグループに
// RequireSession と CSRF、管理ページに RequireAdmin を追加する。
// ログインのPOSTにはセッションがないため CSRF の代わりに RateLimit を使う。
package middleware
